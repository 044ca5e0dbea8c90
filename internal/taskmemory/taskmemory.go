// Package taskmemory implements the Task Memory store (C9): a per-task
// record of files touched, commands run, and errors seen across one
// EXECUTE phase, queryable after the fact.
package taskmemory

import (
	"strings"
	"time"

	"github.com/ralphcore/ralph/internal/atomicfile"
	"github.com/ralphcore/ralph/internal/types"
)

// Store is single-owner: callers must not mutate it concurrently from
// multiple goroutines.
type Store struct {
	tasks map[string]*types.TaskMemory
	order []string // insertion order, for deterministic listing
}

// New constructs an empty Store.
func New() *Store {
	return &Store{tasks: map[string]*types.TaskMemory{}}
}

// StartTask opens a new active TaskMemory record. Re-starting an existing
// taskID resets it.
func (s *Store) StartTask(taskID, conversationID, description string) *types.TaskMemory {
	m := &types.TaskMemory{
		TaskID:         taskID,
		ConversationID: conversationID,
		Description:    description,
		Status:         types.MemoryActive,
		CreatedAt:      time.Now(),
	}
	if _, exists := s.tasks[taskID]; !exists {
		s.order = append(s.order, taskID)
	}
	s.tasks[taskID] = m
	return m
}

// RecordFileModified appends a file path, deduplicated (R2): recording the
// same file twice is a no-op.
func (s *Store) RecordFileModified(taskID, path string) {
	m, ok := s.tasks[taskID]
	if !ok {
		return
	}
	for _, f := range m.FilesModified {
		if f == path {
			return
		}
	}
	m.FilesModified = append(m.FilesModified, path)
}

// RecordCommand appends a command to the task's execution log.
func (s *Store) RecordCommand(taskID, command string) {
	if m, ok := s.tasks[taskID]; ok {
		m.CommandsExecuted = append(m.CommandsExecuted, command)
	}
}

// RecordError appends an error message to the task's log.
func (s *Store) RecordError(taskID, message string) {
	if m, ok := s.tasks[taskID]; ok {
		m.Errors = append(m.Errors, message)
	}
}

// CompleteTask marks a task completed with a final outcome summary.
func (s *Store) CompleteTask(taskID, outcome string) {
	s.finish(taskID, types.MemoryCompleted, outcome)
}

// FailTask marks a task failed with a final outcome summary.
func (s *Store) FailTask(taskID, outcome string) {
	s.finish(taskID, types.MemoryFailed, outcome)
}

func (s *Store) finish(taskID string, status types.TaskMemoryStatus, outcome string) {
	m, ok := s.tasks[taskID]
	if !ok {
		return
	}
	now := time.Now()
	m.Status = status
	m.Outcome = outcome
	m.CompletedAt = &now
}

// Get returns the record for taskID, or nil if none exists.
func (s *Store) Get(taskID string) *types.TaskMemory {
	return s.tasks[taskID]
}

// ByStatus returns every record with the given status, in insertion order.
func (s *Store) ByStatus(status types.TaskMemoryStatus) []*types.TaskMemory {
	var out []*types.TaskMemory
	for _, id := range s.order {
		if m := s.tasks[id]; m != nil && m.Status == status {
			out = append(out, m)
		}
	}
	return out
}

// ByConversation returns every record sharing conversationID, in insertion order.
func (s *Store) ByConversation(conversationID string) []*types.TaskMemory {
	var out []*types.TaskMemory
	for _, id := range s.order {
		if m := s.tasks[id]; m != nil && m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out
}

// ByFile returns every record that touched path.
func (s *Store) ByFile(path string) []*types.TaskMemory {
	var out []*types.TaskMemory
	for _, id := range s.order {
		m := s.tasks[id]
		if m == nil {
			continue
		}
		for _, f := range m.FilesModified {
			if f == path {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Search does a case-insensitive substring match over description, outcome,
// files modified, and commands executed.
func (s *Store) Search(query string) []*types.TaskMemory {
	q := strings.ToLower(query)
	var out []*types.TaskMemory
	for _, id := range s.order {
		m := s.tasks[id]
		if m == nil {
			continue
		}
		if searchMatches(m, q) {
			out = append(out, m)
		}
	}
	return out
}

func searchMatches(m *types.TaskMemory, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(m.Description), lowerQuery) || strings.Contains(strings.ToLower(m.Outcome), lowerQuery) {
		return true
	}
	for _, f := range m.FilesModified {
		if strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	for _, c := range m.CommandsExecuted {
		if strings.Contains(strings.ToLower(c), lowerQuery) {
			return true
		}
	}
	return false
}

// Cleanup removes completed or failed records older than maxAge, returning
// the count removed. Active records are never removed.
func (s *Store) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		m := s.tasks[id]
		if m != nil && m.Status != types.MemoryActive && m.CompletedAt != nil && m.CompletedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// Snapshot returns every record in insertion order, for persistence.
func (s *Store) Snapshot() types.TaskMemorySnapshot {
	snap := types.TaskMemorySnapshot{Version: 1}
	for _, id := range s.order {
		snap.Tasks = append(snap.Tasks, s.tasks[id])
	}
	return snap
}

// Save atomically writes the store's snapshot to path.
func (s *Store) Save(path string) error {
	return atomicfile.WriteJSON(path, s.Snapshot())
}

// Restore replaces the store's contents with a snapshot written by Save.
func (s *Store) Restore(path string) error {
	var snap types.TaskMemorySnapshot
	if err := atomicfile.ReadJSON(path, &snap); err != nil {
		return err
	}
	s.tasks = make(map[string]*types.TaskMemory, len(snap.Tasks))
	s.order = make([]string, 0, len(snap.Tasks))
	for _, m := range snap.Tasks {
		s.tasks[m.TaskID] = m
		s.order = append(s.order, m.TaskID)
	}
	return nil
}
