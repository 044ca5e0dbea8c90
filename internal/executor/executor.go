// Package executor implements the Parallel Executor (C5): it schedules
// subtask execution under a concurrency cap, oblivious to what a subtask
// actually does.
package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/ralphcore/ralph/internal/resolver"
	"github.com/ralphcore/ralph/internal/types"
)

// SubtaskExecutor is the injected capability that actually runs a subtask.
// The executor treats it opaquely: it is where LM calls, file writes, and
// shell commands happen, none of which this package knows about.
type SubtaskExecutor interface {
	Execute(ctx context.Context, subtask *types.Subtask, taskCtx *types.TaskContext) (*types.SubtaskResult, error)
}

// Config bounds the scheduler.
type Config struct {
	MaxConcurrency     int
	ProgressIntervalMs int64
}

// DefaultConfig matches spec.md's documented default concurrency cap.
func DefaultConfig() Config {
	return Config{MaxConcurrency: 4, ProgressIntervalMs: 250}
}

// ProgressEvent is emitted after every subtask completion.
type ProgressEvent struct {
	Completed      int
	Failed         int
	InProgress     int
	Pending        int
	Skipped        int
	TotalElapsedMs int64
}

// ProgressCallback receives one ProgressEvent per state change.
type ProgressCallback func(ProgressEvent)

// Totals is the per-status subtask count at the end of a run.
type Totals struct {
	Completed int
	Failed    int
	Skipped   int
}

// Result is the C5 output: per-subtask results plus run-level aggregates.
type Result struct {
	PerSubtaskResults     map[string]*types.SubtaskResult
	Totals                Totals
	DurationMs            int64
	MaxConcurrencyObserved int
}

// Run schedules the decomposition's subtasks to completion (or to an
// ABORT/cancellation stop) under cfg.MaxConcurrency, using res to resolve
// dependencies and apply the configured failure policy.
func Run(ctx context.Context, d *types.TaskDecomposition, res *resolver.Resolver, exec SubtaskExecutor, cfg Config, taskCtx *types.TaskContext, onProgress ProgressCallback) *Result {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}

	start := time.Now()
	state := resolver.CreateInitialState(d)

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(cfg.MaxConcurrency)
	completions := make(chan string, len(d.Subtasks)+1)

	results := make(map[string]*types.SubtaskResult, len(d.Subtasks))
	launched := map[string]bool{}
	inFlight := 0
	maxObserved := 0
	canContinue := true

	byID := map[string]*types.Subtask{}
	for _, s := range d.Subtasks {
		byID[s.ID] = s
	}

	// launch blocks (in its own goroutine, spawned by schedule via "go
	// launch(id)") until the pool has a free slot, then runs the subtask.
	// A panicking SubtaskExecutor is recovered locally so it always produces
	// a failed result and a completions send; the scheduling loop never
	// depends on a panic not happening to make progress.
	launch := func(id string) {
		p.Go(func() {
			mu.Lock()
			launched[id] = true
			state.InProgress[id] = true
			inFlight++
			if inFlight > maxObserved {
				maxObserved = inFlight
			}
			mu.Unlock()

			subtask := byID[id]
			t0 := time.Now()
			var result *types.SubtaskResult
			func() {
				defer func() {
					if r := recover(); r != nil {
						result = &types.SubtaskResult{
							Success:    false,
							Error:      fmt.Sprintf("panic: %v", r),
							DurationMs: time.Since(t0).Milliseconds(),
						}
					}
				}()
				res, err := exec.Execute(ctx, subtask, taskCtx)
				if res == nil {
					res = &types.SubtaskResult{}
				}
				if res.DurationMs == 0 {
					res.DurationMs = time.Since(t0).Milliseconds()
				}
				if err != nil && res.Success {
					res.Success = false
					res.Error = err.Error()
				}
				result = res
			}()

			mu.Lock()
			inFlight--
			results[id] = result
			mu.Unlock()
			completions <- id
		})
	}

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if !canContinue {
			return
		}
		for _, id := range resolver.GetNextExecutable(d, state) {
			if launched[id] || inFlight >= cfg.MaxConcurrency {
				continue
			}
			go launch(id)
		}
	}

	emit := func() {
		mu.Lock()
		ev := ProgressEvent{TotalElapsedMs: time.Since(start).Milliseconds()}
		for _, s := range d.Subtasks {
			switch state.StatusOf(s.ID) {
			case types.StatusCompleted:
				ev.Completed++
			case types.StatusFailed:
				ev.Failed++
			case types.StatusInProgress:
				ev.InProgress++
			case types.StatusSkipped:
				ev.Skipped++
			default:
				ev.Pending++
			}
		}
		mu.Unlock()
		if onProgress != nil {
			onProgress(ev)
		}
	}

	schedule()

	for {
		mu.Lock()
		done := resolver.IsComplete(d, state) || (!canContinue && inFlight == 0)
		mu.Unlock()
		if done {
			break
		}

		select {
		case <-ctx.Done():
			mu.Lock()
			canContinue = false
			mu.Unlock()
			// the top-of-loop check exits once inFlight drains to zero.
			continue
		case id := <-completions:
			mu.Lock()
			result := results[id]
			if result != nil && result.Success {
				resolver.HandleCompletion(d, id, state)
			} else {
				outcome := res.HandleFailure(d, id, state)
				canContinue = outcome.CanContinue
				if state.StatusOf(id) != types.StatusFailed {
					// RETRY re-queued the subtask back to pending.
					delete(launched, id)
				}
			}
			mu.Unlock()
			schedule()
			emit()
		}
	}

	p.Wait()

	totals := Totals{}
	mu.Lock()
	for _, s := range d.Subtasks {
		switch state.StatusOf(s.ID) {
		case types.StatusCompleted:
			totals.Completed++
		case types.StatusFailed:
			totals.Failed++
		case types.StatusSkipped:
			totals.Skipped++
		}
	}
	mu.Unlock()

	return &Result{
		PerSubtaskResults:      results,
		Totals:                 totals,
		DurationMs:             time.Since(start).Milliseconds(),
		MaxConcurrencyObserved: maxObserved,
	}
}

// ByPriorityThenCriticalPath orders ids by priority (P0 first), then by
// critical-path membership, then by stable id, matching the scheduling
// tie-break rule in spec.md 4.5. Run does not apply this ordering: it
// launches the executable set in the order GetNextExecutable returns it.
func ByPriorityThenCriticalPath(d *types.TaskDecomposition, criticalPath []string, ids []string) []string {
	onPath := map[string]bool{}
	for _, id := range criticalPath {
		onPath[id] = true
	}
	byID := map[string]*types.Subtask{}
	for _, s := range d.Subtasks {
		byID[s.ID] = s
	}
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := byID[out[i]].Priority.Rank(), byID[out[j]].Priority.Rank()
		if pi != pj {
			return pi < pj
		}
		if onPath[out[i]] != onPath[out[j]] {
			return onPath[out[i]]
		}
		return out[i] < out[j]
	})
	return out
}
