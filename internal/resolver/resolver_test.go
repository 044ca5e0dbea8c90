package resolver

import (
	"testing"

	"github.com/ralphcore/ralph/internal/types"
)

func chainABC() *types.TaskDecomposition {
	a := &types.Subtask{ID: "a", Title: "A", Status: types.StatusPending}
	b := &types.Subtask{ID: "b", Title: "B", DependsOn: []string{"a"}, Status: types.StatusPending}
	c := &types.Subtask{ID: "c", Title: "C", DependsOn: []string{"b"}, Status: types.StatusPending}
	return &types.TaskDecomposition{Subtasks: []*types.Subtask{a, b, c}}
}

func TestGetNextExecutableRespectsDependencies(t *testing.T) {
	d := chainABC()
	s := CreateInitialState(d)
	next := GetNextExecutable(d, s)
	if len(next) != 1 || next[0] != "a" {
		t.Fatalf("expected only 'a' executable, got %v", next)
	}
}

func TestHandleCompletionUnlocksDependent(t *testing.T) {
	d := chainABC()
	s := CreateInitialState(d)
	s.InProgress["a"] = true
	next := HandleCompletion(d, "a", s)
	if len(next) != 1 || next[0] != "b" {
		t.Fatalf("expected 'b' to become executable, got %v", next)
	}
	if !s.Completed["a"] {
		t.Error("expected 'a' to be marked completed")
	}
}

func TestHandleFailureSkipDependents(t *testing.T) {
	d := chainABC()
	s := CreateInitialState(d)
	s.InProgress["b"] = true
	r := New(Config{FailureMode: types.FailureSkipDependents})
	outcome := r.HandleFailure(d, "b", s)

	if !outcome.CanContinue {
		t.Error("SKIP_DEPENDENTS should allow continuing")
	}
	if !s.Failed["b"] {
		t.Error("expected 'b' marked failed")
	}
	if !s.Skipped["c"] {
		t.Error("expected transitive dependent 'c' marked skipped")
	}
}

func TestHandleFailureAbortStopsScheduling(t *testing.T) {
	d := chainABC()
	s := CreateInitialState(d)
	s.InProgress["a"] = true
	r := New(Config{FailureMode: types.FailureAbort})
	outcome := r.HandleFailure(d, "a", s)
	if outcome.CanContinue {
		t.Error("ABORT should set canContinue=false")
	}
}

func TestHandleFailureRetryThenSkip(t *testing.T) {
	d := chainABC()
	s := CreateInitialState(d)
	r := New(Config{FailureMode: types.FailureRetry, PerSubtaskRetryBudget: 1})

	s.InProgress["b"] = true
	outcome := r.HandleFailure(d, "b", s)
	if !outcome.CanContinue {
		t.Fatal("expected retry to allow continuing")
	}
	if s.Failed["b"] {
		t.Fatal("expected 'b' not yet marked failed within retry budget")
	}

	s.InProgress["b"] = true
	outcome = r.HandleFailure(d, "b", s)
	if !s.Failed["b"] {
		t.Fatal("expected 'b' marked failed once retry budget is exhausted")
	}
	if !s.Skipped["c"] {
		t.Fatal("expected fallthrough to SKIP_DEPENDENTS after budget exhaustion")
	}
}

func TestIsComplete(t *testing.T) {
	d := chainABC()
	s := CreateInitialState(d)
	if IsComplete(d, s) {
		t.Fatal("fresh decomposition should not be complete")
	}
	s.Completed["a"] = true
	s.Completed["b"] = true
	s.Completed["c"] = true
	if !IsComplete(d, s) {
		t.Fatal("expected complete once every subtask is terminal")
	}
}

func TestResolveReportsCycles(t *testing.T) {
	a := &types.Subtask{ID: "a", Title: "A", DependsOn: []string{"b"}}
	b := &types.Subtask{ID: "b", Title: "B", DependsOn: []string{"a"}}
	d := &types.TaskDecomposition{Subtasks: []*types.Subtask{a, b}}
	res := Resolve(d)
	if !res.HasUnresolvable {
		t.Fatal("expected cyclic decomposition to be unresolvable")
	}
}
