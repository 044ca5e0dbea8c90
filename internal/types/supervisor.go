package types

import "time"

// SupervisorConfig bounds one Supervisor's run of the Ralph Loop.
type SupervisorConfig struct {
	MaxIterations     int                        `json:"maxIterations"`
	StateTimeouts     map[SupervisorState]int64  `json:"stateTimeouts,omitempty"` // ms
	EnablePersistence bool                       `json:"enablePersistence"`
	PersistencePath   string                     `json:"persistencePath,omitempty"`
}

// TaskContext is the supervisor's exclusively-owned record of one task run.
type TaskContext struct {
	TaskID             string               `json:"taskId"`
	Description        string               `json:"description"`
	Iteration          int                  `json:"iteration"`
	MaxIterations      int                  `json:"maxIterations"`
	StartedAt          time.Time            `json:"startedAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
	Plan               *TaskDecomposition   `json:"plan,omitempty"`
	ExecutionResults   map[string]*SubtaskResult `json:"executionResults,omitempty"`
	VerificationResult *VerificationReport  `json:"verificationResult,omitempty"`
	LastError          string               `json:"lastError,omitempty"`
}

// StateTransition is one append-only entry in the supervisor's history.
type StateTransition struct {
	From      SupervisorState `json:"from"`
	To        SupervisorState `json:"to"`
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
	Context   *TaskContext    `json:"context,omitempty"`
}

// PersistedSupervisorState is the C7 snapshot document.
type PersistedSupervisorState struct {
	Version      int               `json:"version"`
	CurrentState SupervisorState   `json:"currentState"`
	TaskContext  *TaskContext      `json:"taskContext,omitempty"`
	StateHistory []StateTransition `json:"stateHistory"`
	PersistedAt  time.Time         `json:"persistedAt"`
}
