package supervisor

import (
	"testing"

	"github.com/ralphcore/ralph/internal/types"
)

func TestStartMovesIdleToPlan(t *testing.T) {
	s := New(types.SupervisorConfig{MaxIterations: 3})
	if err := s.Start("t1", "do the thing"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Current() != types.StatePlan {
		t.Fatalf("Current() = %s, want PLAN", s.Current())
	}
}

func TestAdvanceWalksThePrimaryPath(t *testing.T) {
	s := New(types.SupervisorConfig{})
	_ = s.Start("t1", "desc")
	if err := s.Advance("planned"); err != nil {
		t.Fatalf("PLAN->EXECUTE: %v", err)
	}
	if err := s.Advance("executed"); err != nil {
		t.Fatalf("EXECUTE->VERIFY: %v", err)
	}
	if err := s.Advance("verified"); err != nil {
		t.Fatalf("VERIFY->COMPLETE: %v", err)
	}
	if s.Current() != types.StateComplete {
		t.Fatalf("Current() = %s, want COMPLETE", s.Current())
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	s := New(types.SupervisorConfig{})
	_ = s.Start("t1", "desc")
	if err := s.transition(types.StateVerify, "skip to verify"); err == nil {
		t.Fatal("expected PLAN->VERIFY to be rejected, no such edge exists")
	}
}

func TestIterateExhaustsBudgetToFailed(t *testing.T) {
	s := New(types.SupervisorConfig{MaxIterations: 1})
	_ = s.Start("t1", "desc")
	_ = s.Advance("planned")
	_ = s.Advance("executed")
	// first iterate: within budget, routes back to EXECUTE with remediation context
	if err := s.Iterate("needs another pass"); err != nil {
		t.Fatalf("first Iterate: %v", err)
	}
	if s.Current() != types.StateExecute {
		t.Fatalf("Current() after first Iterate = %s, want EXECUTE", s.Current())
	}
	_ = s.Advance("executed again")
	// second iterate: exceeds MaxIterations(1), must land in FAILED
	if err := s.Iterate("still not right"); err != nil {
		t.Fatalf("second Iterate: %v", err)
	}
	if s.Current() != types.StateFailed {
		t.Fatalf("Current() after budget exhaustion = %s, want FAILED", s.Current())
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	s := New(types.SupervisorConfig{})
	_ = s.Start("t1", "desc")
	_ = s.Advance("planned")
	if err := s.Pause("operator requested"); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if s.Current() != types.StatePaused {
		t.Fatalf("Current() = %s, want PAUSED", s.Current())
	}
	if err := s.Resume("operator resumed"); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if s.Current() != types.StateExecute {
		t.Fatalf("Current() after Resume = %s, want EXECUTE (the state Pause was called from)", s.Current())
	}
}

func TestFailWhilePausedGoesDirectlyToFailed(t *testing.T) {
	s := New(types.SupervisorConfig{})
	_ = s.Start("t1", "desc")
	_ = s.Advance("planned")
	_ = s.Pause("operator requested")
	if err := s.Fail("operator cancelled"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if s.Current() != types.StateFailed {
		t.Fatalf("Current() = %s, want FAILED", s.Current())
	}
}

func TestTransitionCallbacksFireInOrder(t *testing.T) {
	s := New(types.SupervisorConfig{})
	var events []string
	s.OnStateExit(types.StateIdle, func(st types.SupervisorState, _ *types.TaskContext) {
		events = append(events, "exit:"+string(st))
	})
	s.OnTransition(func(tr types.StateTransition) {
		events = append(events, "record:"+string(tr.From)+"->"+string(tr.To))
	})
	s.OnStateEntry(types.StatePlan, func(st types.SupervisorState, _ *types.TaskContext) {
		events = append(events, "entry:"+string(st))
	})

	_ = s.Start("t1", "desc")

	want := []string{"exit:IDLE", "record:IDLE->PLAN", "entry:PLAN"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestUnregisterStopsFurtherCalls(t *testing.T) {
	s := New(types.SupervisorConfig{})
	calls := 0
	h := s.OnTransition(func(types.StateTransition) { calls++ })
	_ = s.Start("t1", "desc")
	h.Unregister()
	_ = s.Advance("planned")
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (unregister should stop further notifications)", calls)
	}
}

func TestRestoreRequiresIdle(t *testing.T) {
	s := New(types.SupervisorConfig{})
	_ = s.Start("t1", "desc")
	err := s.RestoreFromPersistedState(types.PersistedSupervisorState{CurrentState: types.StateExecute})
	if err == nil {
		t.Fatal("expected restore outside IDLE to be rejected")
	}
}

func TestResetReturnsCompleteToIdle(t *testing.T) {
	s := New(types.SupervisorConfig{})
	_ = s.Start("t1", "desc")
	_ = s.Advance("planned")
	_ = s.Advance("executed")
	_ = s.Advance("verified")
	if err := s.Reset("starting next task"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Current() != types.StateIdle {
		t.Fatalf("Current() after Reset = %s, want IDLE", s.Current())
	}
	if err := s.Start("t2", "next task"); err != nil {
		t.Fatalf("Start after Reset: %v", err)
	}
}

func TestResetRejectedOutsideTerminalStates(t *testing.T) {
	s := New(types.SupervisorConfig{})
	_ = s.Start("t1", "desc")
	if err := s.Reset("too early"); err == nil {
		t.Fatal("expected Reset from PLAN to be rejected")
	}
}

func TestIdleToFailedForFatalPrecondition(t *testing.T) {
	s := New(types.SupervisorConfig{})
	if err := s.Fail("fatal precondition failure"); err != nil {
		t.Fatalf("Fail from IDLE: %v", err)
	}
	if s.Current() != types.StateFailed {
		t.Fatalf("Current() = %s, want FAILED", s.Current())
	}
}

func TestHistoryIsAppendOnly(t *testing.T) {
	s := New(types.SupervisorConfig{})
	_ = s.Start("t1", "desc")
	_ = s.Advance("planned")
	h := s.History()
	if len(h) != 2 {
		t.Fatalf("len(History()) = %d, want 2", len(h))
	}
	h[0].Reason = "mutated"
	if s.History()[0].Reason == "mutated" {
		t.Fatal("History() must return a copy, not the live slice")
	}
}
