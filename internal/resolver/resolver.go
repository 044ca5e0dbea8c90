// Package resolver implements the Dependency Resolver (C4): it is stateless
// over a (decomposition, state) pair and never blocks.
package resolver

import (
	"sort"

	"github.com/ralphcore/ralph/internal/dag"
	"github.com/ralphcore/ralph/internal/types"
)

// Config configures failure handling.
type Config struct {
	FailureMode          types.FailurePolicy
	PerSubtaskRetryBudget int // must be > 0 when FailureMode is RETRY
}

// DefaultConfig uses the spec's documented default policy.
func DefaultConfig() Config {
	return Config{FailureMode: types.FailureSkipDependents, PerSubtaskRetryBudget: 2}
}

// Resolver tracks retry counts across calls; everything else is derived
// fresh from (decomposition, state) on every call, per spec.md 4.4's
// "stateless over a (decomposition, state) pair" contract.
type Resolver struct {
	cfg     Config
	retries map[string]int
}

func New(cfg Config) *Resolver {
	return &Resolver{cfg: cfg, retries: map[string]int{}}
}

// CreateInitialState builds state sets from the subtasks' current statuses.
func CreateInitialState(d *types.TaskDecomposition) *types.ExecutionState {
	s := types.NewExecutionState()
	for _, st := range d.Subtasks {
		switch st.Status {
		case types.StatusCompleted:
			s.Completed[st.ID] = true
		case types.StatusFailed:
			s.Failed[st.ID] = true
		case types.StatusInProgress:
			s.InProgress[st.ID] = true
		case types.StatusSkipped:
			s.Skipped[st.ID] = true
		}
	}
	return s
}

// GetNextExecutable returns ids that are pending, whose every dependency is
// completed, and that are not already in flight.
func GetNextExecutable(d *types.TaskDecomposition, s *types.ExecutionState) []string {
	var out []string
	for _, st := range d.Subtasks {
		if s.StatusOf(st.ID) != types.StatusPending {
			continue
		}
		ready := true
		for _, dep := range st.DependsOn {
			if !s.Completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, st.ID)
		}
	}
	sort.Strings(out)
	return out
}

// HandleCompletion moves id into completed and returns the newly executable set.
func HandleCompletion(d *types.TaskDecomposition, id string, s *types.ExecutionState) []string {
	delete(s.InProgress, id)
	s.Completed[id] = true
	return GetNextExecutable(d, s)
}

// FailureOutcome is the result of applying the configured policy to a failure.
type FailureOutcome struct {
	CanContinue bool
	Skipped     []string
}

// HandleFailure moves id to failed and applies the configured policy.
func (r *Resolver) HandleFailure(d *types.TaskDecomposition, id string, s *types.ExecutionState) FailureOutcome {
	delete(s.InProgress, id)

	switch r.cfg.FailureMode {
	case types.FailureRetry:
		r.retries[id]++
		if r.retries[id] <= r.cfg.PerSubtaskRetryBudget {
			// back to pending for another attempt; not marked failed.
			return FailureOutcome{CanContinue: true}
		}
		// budget exhausted: fall through to SKIP_DEPENDENTS semantics.
		s.Failed[id] = true
		return FailureOutcome{CanContinue: true, Skipped: skipDependents(d, id, s)}

	case types.FailureAbort:
		s.Failed[id] = true
		return FailureOutcome{CanContinue: false}

	case types.FailureSkipDependents:
		s.Failed[id] = true
		return FailureOutcome{CanContinue: true, Skipped: skipDependents(d, id, s)}

	case types.FailureContinue:
		fallthrough
	default:
		s.Failed[id] = true
		return FailureOutcome{CanContinue: true}
	}
}

// skipDependents transitively marks every downstream dependent of id as
// skipped, satisfying I4.
func skipDependents(d *types.TaskDecomposition, id string, s *types.ExecutionState) []string {
	g := dag.Build(d.Subtasks)
	var skipped []string
	var visit func(cur string)
	visited := map[string]bool{}
	visit = func(cur string) {
		for _, dependent := range g.Forward[cur] {
			if visited[dependent] {
				continue
			}
			visited[dependent] = true
			if !s.Completed[dependent] && !s.Failed[dependent] && !s.Skipped[dependent] {
				s.Skipped[dependent] = true
				skipped = append(skipped, dependent)
			}
			visit(dependent)
		}
	}
	visit(id)
	sort.Strings(skipped)
	return skipped
}

// IsComplete reports whether every subtask has reached a terminal status.
func IsComplete(d *types.TaskDecomposition, s *types.ExecutionState) bool {
	for _, st := range d.Subtasks {
		switch s.StatusOf(st.ID) {
		case types.StatusCompleted, types.StatusFailed, types.StatusSkipped:
		default:
			return false
		}
	}
	return true
}

// ResolutionResult is the pre-execution plan: topological order, parallel
// groups, critical path, and whether the graph has unresolvable cycles.
type ResolutionResult struct {
	HasUnresolvable bool
	Cycles          [][]string
	Order           []string
	ParallelGroups  [][]string
	CriticalPath    []string
}

// Resolve computes the ResolutionResult for a decomposition ahead of execution.
func Resolve(d *types.TaskDecomposition) ResolutionResult {
	g := dag.Build(d.Subtasks)
	var order []string
	for _, level := range g.Levels {
		order = append(order, level...)
	}
	return ResolutionResult{
		HasUnresolvable: g.HasCycles,
		Cycles:          g.Cycles,
		Order:           order,
		ParallelGroups:  g.ParallelGroups,
		CriticalPath:    g.CriticalPath,
	}
}
