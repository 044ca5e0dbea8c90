// Package supervisor implements the Supervisor (C7): a finite-state machine
// driving one task through IDLE -> PLAN -> EXECUTE -> VERIFY -> ITERATE ->
// COMPLETE/FAILED, with an explicit PAUSED side-state.
package supervisor

import (
	"fmt"
	"time"

	"github.com/ralphcore/ralph/internal/atomicfile"
	"github.com/ralphcore/ralph/internal/types"
)

// transitions is the exhaustive table of legal moves. A move not present
// here is rejected by Transition.
var transitions = map[types.SupervisorState]map[types.SupervisorState]bool{
	types.StateIdle: {
		types.StatePlan:   true,
		types.StateFailed: true, // fatal precondition failure before PLAN starts
	},
	types.StatePlan: {
		types.StateExecute: true,
		types.StateFailed:  true,
		types.StatePaused:  true,
	},
	types.StateExecute: {
		types.StateVerify: true,
		types.StateFailed: true,
		types.StatePaused: true,
	},
	types.StateVerify: {
		types.StateComplete: true,
		types.StateIterate:  true,
		types.StateFailed:   true,
		types.StatePaused:   true,
	},
	types.StateIterate: {
		types.StateExecute: true,
		types.StateFailed:  true,
		types.StatePaused:  true,
	},
	types.StatePaused: {
		// resume() restores whatever state was active when Pause was called;
		// fail() while paused goes straight to FAILED (see DESIGN.md).
		types.StatePlan:    true,
		types.StateExecute: true,
		types.StateVerify:  true,
		types.StateIterate: true,
		types.StateFailed:  true,
	},
	types.StateComplete: {
		types.StateIdle: true, // reset() for the next task
	},
	types.StateFailed: {
		types.StateIdle: true, // reset() for the next task
	},
}

// TransitionCallback observes a state change after it has been recorded.
type TransitionCallback func(types.StateTransition)

// StateCallback observes entry into or exit from a single state.
type StateCallback func(state types.SupervisorState, ctx *types.TaskContext)

// unregisterHandle lets callers remove a previously registered callback.
type unregisterHandle struct {
	remove func()
}

// Unregister removes the callback this handle was returned for.
func (h unregisterHandle) Unregister() {
	h.remove()
}

// Supervisor owns one task's lifecycle. It is single-owner: callers must not
// drive it concurrently from multiple goroutines.
type Supervisor struct {
	cfg     types.SupervisorConfig
	current types.SupervisorState
	before  types.SupervisorState // state Pause was called from, for Resume
	ctx     *types.TaskContext
	history []types.StateTransition
	iter    int

	onTransition []func(types.StateTransition)
	onEntry      map[types.SupervisorState][]func(*types.TaskContext)
	onExit       map[types.SupervisorState][]func(*types.TaskContext)
}

// New constructs a Supervisor in IDLE.
func New(cfg types.SupervisorConfig) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		current: types.StateIdle,
		onEntry: map[types.SupervisorState][]func(*types.TaskContext){},
		onExit:  map[types.SupervisorState][]func(*types.TaskContext){},
	}
}

// Current returns the active state.
func (s *Supervisor) Current() types.SupervisorState { return s.current }

// History returns the append-only transition log.
func (s *Supervisor) History() []types.StateTransition {
	return append([]types.StateTransition(nil), s.history...)
}

// OnTransition registers a callback invoked after every recorded transition.
func (s *Supervisor) OnTransition(cb TransitionCallback) unregisterHandle {
	idx := len(s.onTransition)
	s.onTransition = append(s.onTransition, cb)
	return unregisterHandle{remove: func() {
		if idx < len(s.onTransition) {
			s.onTransition[idx] = nil
		}
	}}
}

// OnStateEntry registers a callback invoked whenever state is entered.
func (s *Supervisor) OnStateEntry(state types.SupervisorState, cb StateCallback) unregisterHandle {
	s.onEntry[state] = append(s.onEntry[state], func(ctx *types.TaskContext) { cb(state, ctx) })
	idx := len(s.onEntry[state]) - 1
	return unregisterHandle{remove: func() {
		if idx < len(s.onEntry[state]) {
			s.onEntry[state][idx] = nil
		}
	}}
}

// OnStateExit registers a callback invoked whenever state is exited.
func (s *Supervisor) OnStateExit(state types.SupervisorState, cb StateCallback) unregisterHandle {
	s.onExit[state] = append(s.onExit[state], func(ctx *types.TaskContext) { cb(state, ctx) })
	idx := len(s.onExit[state]) - 1
	return unregisterHandle{remove: func() {
		if idx < len(s.onExit[state]) {
			s.onExit[state][idx] = nil
		}
	}}
}

// Start moves IDLE -> PLAN and installs the task context.
func (s *Supervisor) Start(taskID, description string) error {
	if s.current != types.StateIdle {
		return fmt.Errorf("supervisor: Start requires IDLE, got %s", s.current)
	}
	now := time.Now()
	s.ctx = &types.TaskContext{
		TaskID:        taskID,
		Description:   description,
		Iteration:     0,
		MaxIterations: s.cfg.MaxIterations,
		StartedAt:     now,
		UpdatedAt:     now,
	}
	return s.transition(types.StatePlan, "start")
}

// Advance moves the supervisor forward along its normal path: PLAN->EXECUTE,
// EXECUTE->VERIFY, VERIFY->COMPLETE. Callers drive VERIFY's other exits
// (Iterate, Fail) explicitly since they depend on the verification outcome.
func (s *Supervisor) Advance(reason string) error {
	var next types.SupervisorState
	switch s.current {
	case types.StatePlan:
		next = types.StateExecute
	case types.StateExecute:
		next = types.StateVerify
	case types.StateVerify:
		next = types.StateComplete
	default:
		return fmt.Errorf("supervisor: Advance has no forward move from %s", s.current)
	}
	return s.transition(next, reason)
}

// Iterate records a new attempt and routes back to EXECUTE with the
// accumulated remediation context (or to FAILED once the iteration budget
// is exhausted).
func (s *Supervisor) Iterate(reason string) error {
	if s.current != types.StateVerify && s.current != types.StateIterate {
		return fmt.Errorf("supervisor: Iterate requires VERIFY, got %s", s.current)
	}
	s.iter++
	if s.ctx != nil {
		s.ctx.Iteration = s.iter
	}
	if s.cfg.MaxIterations > 0 && s.iter > s.cfg.MaxIterations {
		return s.transition(types.StateFailed, "max iterations reached")
	}
	if err := s.transition(types.StateIterate, reason); err != nil {
		return err
	}
	return s.transition(types.StateExecute, reason)
}

// Pause suspends the current state; Resume returns to it.
func (s *Supervisor) Pause(reason string) error {
	if s.current == types.StatePaused {
		return fmt.Errorf("supervisor: already paused")
	}
	s.before = s.current
	return s.transition(types.StatePaused, reason)
}

// Resume returns to the state Pause was called from.
func (s *Supervisor) Resume(reason string) error {
	if s.current != types.StatePaused {
		return fmt.Errorf("supervisor: Resume requires PAUSED, got %s", s.current)
	}
	return s.transition(s.before, reason)
}

// Fail moves directly to FAILED. A fail() issued while PAUSED is not a
// resume-then-fail: it routes straight to FAILED without restoring `before`.
func (s *Supervisor) Fail(reason string) error {
	if s.current == types.StatePaused {
		return s.transition(types.StateFailed, reason)
	}
	return s.transition(types.StateFailed, reason)
}

// Reset returns a terminal supervisor (COMPLETE or FAILED) to IDLE, clearing
// its task context and history so it can drive the next task.
func (s *Supervisor) Reset(reason string) error {
	if s.current != types.StateComplete && s.current != types.StateFailed {
		return fmt.Errorf("supervisor: Reset requires COMPLETE or FAILED, got %s", s.current)
	}
	if err := s.transition(types.StateIdle, reason); err != nil {
		return err
	}
	s.ctx = nil
	s.history = nil
	s.iter = 0
	s.before = ""
	return nil
}

// transition validates and applies one state change, updating history and
// firing callbacks in exit -> record -> entry order.
func (s *Supervisor) transition(next types.SupervisorState, reason string) error {
	if s.current == next {
		return fmt.Errorf("supervisor: no-op transition %s -> %s", s.current, next)
	}
	if !transitions[s.current][next] {
		return fmt.Errorf("supervisor: illegal transition %s -> %s", s.current, next)
	}

	for _, cb := range s.onExit[s.current] {
		if cb != nil {
			cb(s.ctx)
		}
	}

	from := s.current
	s.current = next
	if s.ctx != nil {
		s.ctx.UpdatedAt = time.Now()
	}

	rec := types.StateTransition{From: from, To: next, Reason: reason, Timestamp: time.Now(), Context: s.ctx}
	s.history = append(s.history, rec)

	for _, cb := range s.onTransition {
		if cb != nil {
			cb(rec)
		}
	}
	for _, cb := range s.onEntry[next] {
		if cb != nil {
			cb(s.ctx)
		}
	}
	return nil
}

// GetPersistedState snapshots the supervisor for atomic persistence.
func (s *Supervisor) GetPersistedState() types.PersistedSupervisorState {
	return types.PersistedSupervisorState{
		Version:      1,
		CurrentState: s.current,
		TaskContext:  s.ctx,
		StateHistory: s.history,
		PersistedAt:  time.Now(),
	}
}

// Save atomically writes the supervisor's snapshot to path.
func (s *Supervisor) Save(path string) error {
	return atomicfile.WriteJSON(path, s.GetPersistedState())
}

// RestoreFromPersistedState loads a snapshot. Only valid from IDLE, since
// restoring mid-task would otherwise silently discard the current run.
func (s *Supervisor) RestoreFromPersistedState(snap types.PersistedSupervisorState) error {
	if s.current != types.StateIdle {
		return fmt.Errorf("supervisor: restore requires IDLE, got %s", s.current)
	}
	s.current = snap.CurrentState
	s.ctx = snap.TaskContext
	s.history = snap.StateHistory
	if s.ctx != nil {
		s.iter = s.ctx.Iteration
	}
	if s.current == types.StatePaused {
		for i := len(s.history) - 1; i >= 0; i-- {
			if s.history[i].To == types.StatePaused {
				s.before = s.history[i].From
				break
			}
		}
	}
	return nil
}

// Restore loads a snapshot previously written by Save.
func (s *Supervisor) Restore(path string) error {
	var snap types.PersistedSupervisorState
	if err := atomicfile.ReadJSON(path, &snap); err != nil {
		return err
	}
	return s.RestoreFromPersistedState(snap)
}
