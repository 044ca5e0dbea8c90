package dag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ralphcore/ralph/internal/types"
)

func sub(id string, deps ...string) *types.Subtask {
	return &types.Subtask{ID: id, Title: id, DependsOn: deps}
}

func TestBuildLinearChain(t *testing.T) {
	subtasks := []*types.Subtask{sub("a"), sub("b", "a"), sub("c", "b")}
	g := Build(subtasks)

	if g.HasCycles {
		t.Fatal("expected no cycles")
	}
	want := [][]string{{"a"}, {"b"}, {"c"}}
	if diff := cmp.Diff(want, g.Levels); diff != "" {
		t.Errorf("Levels mismatch (-want +got):\n%s", diff)
	}
	wantPath := []string{"a", "b", "c"}
	if diff := cmp.Diff(wantPath, g.CriticalPath); diff != "" {
		t.Errorf("CriticalPath mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDetectsSimpleCycle(t *testing.T) {
	subtasks := []*types.Subtask{sub("a", "b"), sub("b", "a")}
	g := Build(subtasks)

	if !g.HasCycles {
		t.Fatal("expected cycle to be detected")
	}
	if len(g.Cycles) == 0 {
		t.Fatal("expected at least one reported cycle")
	}
}

func TestBuildParallelGroup(t *testing.T) {
	subtasks := []*types.Subtask{sub("a"), sub("b"), sub("c", "a", "b")}
	g := Build(subtasks)

	if len(g.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d: %v", len(g.Levels), g.Levels)
	}
	if diff := cmp.Diff([]string{"a", "b"}, g.Levels[0]); diff != "" {
		t.Errorf("level 0 mismatch (-want +got):\n%s", diff)
	}
	if len(g.ParallelGroups) != 1 {
		t.Fatalf("expected 1 parallel group, got %v", g.ParallelGroups)
	}
}

func TestBuildExcludesCyclicNodesFromLevels(t *testing.T) {
	// a->b->a cycle, c depends on nothing and should still level normally.
	subtasks := []*types.Subtask{sub("a", "b"), sub("b", "a"), sub("c")}
	g := Build(subtasks)

	for _, level := range g.Levels {
		for _, id := range level {
			if id == "a" || id == "b" {
				t.Errorf("cyclic node %s should not appear in levels", id)
			}
		}
	}
	found := false
	for _, level := range g.Levels {
		for _, id := range level {
			if id == "c" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected non-cyclic node c to still be leveled")
	}
}

func TestCriticalPathUsesEffortHours(t *testing.T) {
	a := sub("a")
	a.Effort = types.EffortEstimate{Hours: 1}
	b := sub("b", "a")
	b.Effort = types.EffortEstimate{Hours: 10}
	c := sub("c", "a")
	c.Effort = types.EffortEstimate{Hours: 1}

	g := Build([]*types.Subtask{a, b, c})
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, g.CriticalPath); diff != "" {
		t.Errorf("CriticalPath mismatch (-want +got):\n%s", diff)
	}
}
