package types

import "time"

// TaskMemoryStatus is the lifecycle state of a TaskMemory record.
type TaskMemoryStatus string

const (
	MemoryActive    TaskMemoryStatus = "active"
	MemoryCompleted TaskMemoryStatus = "completed"
	MemoryFailed    TaskMemoryStatus = "failed"
)

// TaskMemory is the per-task record C9 maintains across one EXECUTE phase.
type TaskMemory struct {
	TaskID           string           `json:"taskId"`
	ConversationID   string           `json:"conversationId,omitempty"`
	Description      string           `json:"description"`
	FilesModified    []string         `json:"filesModified"`
	CommandsExecuted []string         `json:"commandsExecuted"`
	Errors           []string         `json:"errors"`
	Outcome          string           `json:"outcome,omitempty"`
	Status           TaskMemoryStatus `json:"status"`
	CreatedAt        time.Time        `json:"createdAt"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
}

// TaskMemorySnapshot is the C9 persistence document.
type TaskMemorySnapshot struct {
	Version int           `json:"version"`
	Tasks   []*TaskMemory `json:"tasks"`
}
