package executor

import (
	"context"
	"testing"

	"github.com/ralphcore/ralph/internal/resolver"
	"github.com/ralphcore/ralph/internal/types"
)

type fakeExecutor struct {
	fail  map[string]bool
	panic map[string]bool
}

func (f *fakeExecutor) Execute(ctx context.Context, subtask *types.Subtask, taskCtx *types.TaskContext) (*types.SubtaskResult, error) {
	if f.panic[subtask.ID] {
		panic("executor blew up on " + subtask.ID)
	}
	if f.fail[subtask.ID] {
		return &types.SubtaskResult{Success: false, Error: "boom"}, nil
	}
	return &types.SubtaskResult{Success: true, AffectedFiles: subtask.AffectedFiles}, nil
}

func chain(ids ...string) *types.TaskDecomposition {
	var subtasks []*types.Subtask
	for i, id := range ids {
		s := &types.Subtask{ID: id, Title: id, Status: types.StatusPending}
		if i > 0 {
			s.DependsOn = []string{ids[i-1]}
		}
		subtasks = append(subtasks, s)
	}
	return &types.TaskDecomposition{Subtasks: subtasks}
}

func TestRunHappyPathSequential(t *testing.T) {
	d := chain("a", "b", "c")
	res := resolver.New(resolver.DefaultConfig())
	result := Run(context.Background(), d, res, &fakeExecutor{}, Config{MaxConcurrency: 1}, &types.TaskContext{}, nil)

	if result.Totals.Completed != 3 {
		t.Fatalf("expected 3 completed, got %+v", result.Totals)
	}
	if result.MaxConcurrencyObserved != 1 {
		t.Errorf("expected concurrency cap 1 to degenerate to sequential, observed %d", result.MaxConcurrencyObserved)
	}
}

func TestRunSkipDependentsOnFailure(t *testing.T) {
	d := chain("a", "b", "c")
	res := resolver.New(resolver.Config{FailureMode: types.FailureSkipDependents})
	result := Run(context.Background(), d, res, &fakeExecutor{fail: map[string]bool{"b": true}}, Config{MaxConcurrency: 4}, &types.TaskContext{}, nil)

	if result.Totals.Completed != 1 {
		t.Errorf("expected 'a' to complete, got totals=%+v", result.Totals)
	}
	if result.Totals.Failed != 1 {
		t.Errorf("expected 'b' to fail, got totals=%+v", result.Totals)
	}
	if result.Totals.Skipped != 1 {
		t.Errorf("expected 'c' to be skipped, got totals=%+v", result.Totals)
	}
}

func TestRunParallelSubtasksBothComplete(t *testing.T) {
	a := &types.Subtask{ID: "a", Title: "A"}
	b := &types.Subtask{ID: "b", Title: "B"}
	d := &types.TaskDecomposition{Subtasks: []*types.Subtask{a, b}}
	res := resolver.New(resolver.DefaultConfig())
	result := Run(context.Background(), d, res, &fakeExecutor{}, Config{MaxConcurrency: 4}, &types.TaskContext{}, nil)

	if result.Totals.Completed != 2 {
		t.Fatalf("expected both subtasks to complete, got %+v", result.Totals)
	}
}

func TestRunEmitsProgress(t *testing.T) {
	d := chain("a", "b")
	res := resolver.New(resolver.DefaultConfig())
	var events []ProgressEvent
	Run(context.Background(), d, res, &fakeExecutor{}, Config{MaxConcurrency: 1}, &types.TaskContext{}, func(e ProgressEvent) {
		events = append(events, e)
	})
	if len(events) == 0 {
		t.Fatal("expected at least one progress event")
	}
	last := events[len(events)-1]
	if last.Completed != 2 {
		t.Errorf("expected final event to show 2 completed, got %+v", last)
	}
}

func TestRunAbortStopsNewLaunches(t *testing.T) {
	a := &types.Subtask{ID: "a", Title: "A"}
	b := &types.Subtask{ID: "b", Title: "B"}
	d := &types.TaskDecomposition{Subtasks: []*types.Subtask{a, b}}
	res := resolver.New(resolver.Config{FailureMode: types.FailureAbort})
	result := Run(context.Background(), d, res, &fakeExecutor{fail: map[string]bool{"a": true, "b": true}}, Config{MaxConcurrency: 1}, &types.TaskContext{}, nil)

	if result.Totals.Failed == 0 {
		t.Fatal("expected at least one failure recorded")
	}
}

func TestRunContainsPanickingSubtask(t *testing.T) {
	d := chain("a", "b")
	res := resolver.New(resolver.Config{FailureMode: types.FailureSkipDependents})
	result := Run(context.Background(), d, res, &fakeExecutor{panic: map[string]bool{"a": true}}, Config{MaxConcurrency: 2}, &types.TaskContext{}, nil)

	if result.Totals.Failed != 1 {
		t.Fatalf("expected the panicking subtask to be recorded failed, got %+v", result.Totals)
	}
	r := result.PerSubtaskResults["a"]
	if r == nil || r.Success {
		t.Fatalf("expected a failed result for the panicking subtask, got %+v", r)
	}
}

func TestByPriorityThenCriticalPath(t *testing.T) {
	high := &types.Subtask{ID: "high", Priority: types.PriorityP0}
	low := &types.Subtask{ID: "low", Priority: types.PriorityP3}
	d := &types.TaskDecomposition{Subtasks: []*types.Subtask{low, high}}
	ordered := ByPriorityThenCriticalPath(d, nil, []string{"low", "high"})
	if ordered[0] != "high" {
		t.Errorf("expected P0 subtask first, got %v", ordered)
	}
}

