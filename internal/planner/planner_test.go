package planner

import (
	"testing"

	"github.com/ralphcore/ralph/internal/types"
)

func TestDecomposeHappyPath(t *testing.T) {
	req := types.DecompositionRequest{
		Task: "Add a hello function and a test",
		Templates: []types.SubtaskTemplate{
			{Title: "Write hello()", Description: "Implement hello() in hello.ts", Type: types.SubtaskCode, AffectedFiles: []string{"hello.ts"}},
			{Title: "Test hello()", Description: "Add a unit test for hello()", Type: types.SubtaskTest, DependsOnTitles: []string{"Write hello()"}, AffectedFiles: []string{"hello.test.ts"}},
		},
	}

	d, verrs := Decompose(req)
	if verrs.HasErrors() {
		t.Fatalf("unexpected planner errors: %v", verrs.Errors)
	}
	if len(d.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(d.Subtasks))
	}
	if len(d.Subtasks[1].DependsOn) != 1 || d.Subtasks[1].DependsOn[0] != d.Subtasks[0].ID {
		t.Fatalf("expected second subtask to depend on the first's id, got %v want [%s]", d.Subtasks[1].DependsOn, d.Subtasks[0].ID)
	}
	if len(d.RootSubtasks) != 1 || d.RootSubtasks[0] != d.Subtasks[0].ID {
		t.Errorf("RootSubtasks = %v", d.RootSubtasks)
	}
	if len(d.LeafSubtasks) != 1 || d.LeafSubtasks[0] != d.Subtasks[1].ID {
		t.Errorf("LeafSubtasks = %v", d.LeafSubtasks)
	}
}

func TestDecomposeUnknownDependencyTitle(t *testing.T) {
	req := types.DecompositionRequest{
		Task: "x",
		Templates: []types.SubtaskTemplate{
			{Title: "Do thing", DependsOnTitles: []string{"Nonexistent"}},
		},
	}
	d, verrs := Decompose(req)
	if !verrs.HasErrors() {
		t.Fatal("expected an error for unknown dependency title")
	}
	if len(d.Subtasks[0].DependsOn) != 0 {
		t.Errorf("expected unresolved dependency to be dropped, got %v", d.Subtasks[0].DependsOn)
	}
}

func TestDecomposeIsDeterministic(t *testing.T) {
	req := types.DecompositionRequest{
		Task: "x",
		Templates: []types.SubtaskTemplate{
			{Title: "A"},
			{Title: "B", DependsOnTitles: []string{"A"}},
		},
	}
	d1, _ := Decompose(req)
	d2, _ := Decompose(req)
	if d1.Subtasks[0].ID != d2.Subtasks[0].ID || d1.Subtasks[1].ID != d2.Subtasks[1].ID {
		t.Fatal("Decompose produced different ids across runs for identical input")
	}
}

func TestDecomposeFillsEffortAndCriteria(t *testing.T) {
	req := types.DecompositionRequest{
		Task:      "x",
		Templates: []types.SubtaskTemplate{{Title: "A"}},
	}
	d, _ := Decompose(req)
	s := d.Subtasks[0]
	if s.Effort.Level == "" {
		t.Error("expected effort level to be filled in")
	}
	if s.Effort.Confidence <= 0 || s.Effort.Confidence > 1 {
		t.Errorf("confidence out of range: %v", s.Effort.Confidence)
	}
	if len(s.AcceptanceCriteria) == 0 {
		t.Error("expected heuristic acceptance criteria to be filled in")
	}
}

func TestEstimateEffortConfidenceFloor(t *testing.T) {
	tmpl := types.SubtaskTemplate{Title: "x"} // no files, no criteria, short description
	e := EstimateEffort(tmpl)
	if e.Confidence < 0.3 {
		t.Errorf("confidence should be floored at 0.3, got %v", e.Confidence)
	}
}
