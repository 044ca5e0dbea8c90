package types

import "testing"

func TestSubtaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		subtask Subtask
		wantErr bool
	}{
		{
			name:    "valid minimal",
			subtask: Subtask{ID: "a", Title: "Write hello()"},
			wantErr: false,
		},
		{
			name:    "missing id",
			subtask: Subtask{Title: "x"},
			wantErr: true,
		},
		{
			name:    "missing title",
			subtask: Subtask{ID: "a"},
			wantErr: true,
		},
		{
			name:    "self dependency",
			subtask: Subtask{ID: "a", Title: "x", DependsOn: []string{"a"}},
			wantErr: true,
		},
		{
			name:    "invalid type",
			subtask: Subtask{ID: "a", Title: "x", Type: "bogus"},
			wantErr: true,
		},
		{
			name:    "invalid status",
			subtask: Subtask{ID: "a", Title: "x", Status: "bogus"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.subtask.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubtaskCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    SubtaskStatus
		to      SubtaskStatus
		allowed bool
	}{
		{"pending to in_progress", StatusPending, StatusInProgress, true},
		{"pending to completed direct", StatusPending, StatusCompleted, false},
		{"in_progress to completed", StatusInProgress, StatusCompleted, true},
		{"in_progress to failed", StatusInProgress, StatusFailed, true},
		{"in_progress to skipped", StatusInProgress, StatusSkipped, true},
		{"in_progress to pending", StatusInProgress, StatusPending, false},
		{"blocked to pending", StatusBlocked, StatusPending, true},
		{"blocked to skipped", StatusBlocked, StatusSkipped, true},
		{"completed to anything", StatusCompleted, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subtask{Status: tt.from}
			if got := s.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s->%s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestNewSubtaskIDDeterministic(t *testing.T) {
	a := NewSubtaskID(0, "Write hello()")
	b := NewSubtaskID(0, "Write hello()")
	if a != b {
		t.Fatalf("NewSubtaskID not deterministic: %q != %q", a, b)
	}
	c := NewSubtaskID(1, "Write hello()")
	if a == c {
		t.Fatalf("NewSubtaskID ignored index: %q == %q", a, c)
	}
	d := NewSubtaskID(0, "Test hello()")
	if a == d {
		t.Fatalf("NewSubtaskID ignored title: %q == %q", a, d)
	}
}

func TestExecutionStateDisjoint(t *testing.T) {
	e := NewExecutionState()
	e.Completed["a"] = true
	e.Failed["b"] = true
	if !e.IsDisjoint() {
		t.Fatal("expected disjoint sets")
	}
	e.InProgress["a"] = true
	if e.IsDisjoint() {
		t.Fatal("expected overlapping sets to be detected")
	}
}

func TestExecutionStateStatusOf(t *testing.T) {
	e := NewExecutionState()
	e.Completed["a"] = true
	if got := e.StatusOf("a"); got != StatusCompleted {
		t.Errorf("StatusOf(a) = %s, want completed", got)
	}
	if got := e.StatusOf("z"); got != StatusPending {
		t.Errorf("StatusOf(z) = %s, want pending (implicit)", got)
	}
}

func TestValidationErrorsToReport(t *testing.T) {
	var v ValidationErrors
	if v.ToReport() != "" {
		t.Fatal("expected empty report with no errors")
	}
	v.Add("subtasks[0].title", "non-empty string", "", "title is required")
	report := v.ToReport()
	if report == "" {
		t.Fatal("expected non-empty report")
	}
}

func TestDeriveRootsAndLeaves(t *testing.T) {
	d := &TaskDecomposition{Subtasks: []*Subtask{
		{ID: "a"},
		{ID: "b", DependsOn: []string{"a"}},
		{ID: "c", DependsOn: []string{"a"}},
	}}
	d.DeriveRootsAndLeaves()
	if len(d.RootSubtasks) != 1 || d.RootSubtasks[0] != "a" {
		t.Errorf("RootSubtasks = %v, want [a]", d.RootSubtasks)
	}
	if len(d.LeafSubtasks) != 2 {
		t.Errorf("LeafSubtasks = %v, want 2 entries", d.LeafSubtasks)
	}
}
