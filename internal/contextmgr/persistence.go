package contextmgr

import (
	"github.com/ralphcore/ralph/internal/atomicfile"
	"github.com/ralphcore/ralph/internal/types"
)

const contextSnapshotVersion = 1

// Save atomically writes a snapshot of {items, config, stats} to path.
// The manager is single-owner, so writes are never concurrent with each other.
func (m *Manager) Save(path string) error {
	snap := types.ContextSnapshot{
		Version: contextSnapshotVersion,
		Items:   m.items,
		Config:  m.cfg,
		Stats:   m.Stats(),
	}
	return atomicfile.WriteJSON(path, snap)
}

// Restore reloads a snapshot written by Save, replacing the manager's
// current items and config.
func (m *Manager) Restore(path string) error {
	var snap types.ContextSnapshot
	if err := atomicfile.ReadJSON(path, &snap); err != nil {
		return err
	}
	m.items = snap.Items
	m.cfg = snap.Config
	return nil
}
