package types

import "time"

// DecompositionRequest is the input to the Task Planner.
type DecompositionRequest struct {
	Task            string           `json:"task"`
	Constraints     []string         `json:"constraints,omitempty"`
	PreferredOrder  []string         `json:"preferredOrder,omitempty"` // titles, in the order the caller would like
	MaxSubtasks     int              `json:"maxSubtasks,omitempty"`
	Templates       []SubtaskTemplate `json:"templates"`
	SuccessCriteria []string         `json:"successCriteria,omitempty"`
}

// SubtaskTemplate is the planner's raw unprocessed input for one subtask:
// titles are used to resolve dependencies before stable ids exist.
type SubtaskTemplate struct {
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	Type               SubtaskType `json:"type"`
	DependsOnTitles    []string    `json:"dependsOnTitles,omitempty"`
	AffectedFiles      []string    `json:"affectedFiles,omitempty"`
	AcceptanceCriteria []string    `json:"acceptanceCriteria,omitempty"`
	Priority           Priority    `json:"priority,omitempty"`
}

// TaskDecomposition is the full plan produced by the Task Planner: the
// original task text plus the ordered subtasks and plan-level metadata.
type TaskDecomposition struct {
	OriginalTask    string     `json:"originalTask"`
	Title           string     `json:"title"`
	Subtasks        []*Subtask `json:"subtasks"`
	RootSubtasks    []string   `json:"rootSubtasks"`
	LeafSubtasks    []string   `json:"leafSubtasks"`
	SuccessCriteria []string   `json:"successCriteria"`
	Risks           []string   `json:"risks"`
	CreatedAt       time.Time  `json:"createdAt"`
	Status          PlanStatus `json:"status"`
}

// BySubtaskID returns the subtask with the given id, or nil.
func (d *TaskDecomposition) BySubtaskID(id string) *Subtask {
	for _, s := range d.Subtasks {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// IDs returns every subtask id in the decomposition, in plan order.
func (d *TaskDecomposition) IDs() []string {
	ids := make([]string, len(d.Subtasks))
	for i, s := range d.Subtasks {
		ids[i] = s.ID
	}
	return ids
}

// DeriveRootsAndLeaves recomputes RootSubtasks (no deps) and LeafSubtasks
// (no dependents) from the current subtask set.
func (d *TaskDecomposition) DeriveRootsAndLeaves() {
	hasDependents := make(map[string]bool, len(d.Subtasks))
	for _, s := range d.Subtasks {
		for _, dep := range s.DependsOn {
			hasDependents[dep] = true
		}
	}
	var roots, leaves []string
	for _, s := range d.Subtasks {
		if len(s.DependsOn) == 0 {
			roots = append(roots, s.ID)
		}
		if !hasDependents[s.ID] {
			leaves = append(leaves, s.ID)
		}
	}
	d.RootSubtasks = roots
	d.LeafSubtasks = leaves
}

// ExecutionState partitions a decomposition's subtasks into four disjoint
// sets plus the implicit "pending" complement.
type ExecutionState struct {
	Completed  map[string]bool `json:"completed"`
	Failed     map[string]bool `json:"failed"`
	InProgress map[string]bool `json:"inProgress"`
	Skipped    map[string]bool `json:"skipped"`
}

// NewExecutionState returns an ExecutionState with all sets initialised empty.
func NewExecutionState() *ExecutionState {
	return &ExecutionState{
		Completed:  map[string]bool{},
		Failed:     map[string]bool{},
		InProgress: map[string]bool{},
		Skipped:    map[string]bool{},
	}
}

// StatusOf reports the derived status of id given the current state sets,
// defaulting to pending when the id appears in none of them.
func (e *ExecutionState) StatusOf(id string) SubtaskStatus {
	switch {
	case e.Completed[id]:
		return StatusCompleted
	case e.Failed[id]:
		return StatusFailed
	case e.InProgress[id]:
		return StatusInProgress
	case e.Skipped[id]:
		return StatusSkipped
	default:
		return StatusPending
	}
}

// IsDisjoint verifies the four sets share no id, the structural half of I2.
func (e *ExecutionState) IsDisjoint() bool {
	seen := map[string]int{}
	for id := range e.Completed {
		seen[id]++
	}
	for id := range e.Failed {
		seen[id]++
	}
	for id := range e.InProgress {
		seen[id]++
	}
	for id := range e.Skipped {
		seen[id]++
	}
	for _, n := range seen {
		if n > 1 {
			return false
		}
	}
	return true
}
