// Package workspace locates and bootstraps a ralph workspace: a .ralph/
// directory holding config, and the supervisor/context/task-memory
// snapshots persisted between runs.
package workspace

import (
	"errors"
	"os"
	"path/filepath"
)

const RalphDir = ".ralph"

var ErrNoWorkspace = errors.New("no ralph workspace found (run 'ralph init' first)")
var ErrWorkspaceExists = errors.New("ralph workspace already exists (use --force to overwrite)")

// Find walks up from cwd looking for a .ralph/ directory.
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		ralphPath := filepath.Join(dir, RalphDir)
		if info, err := os.Stat(ralphPath); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoWorkspace
		}
		dir = parent
	}
}

// Path returns the .ralph directory path for a workspace.
func Path(workspaceDir string) string {
	return filepath.Join(workspaceDir, RalphDir)
}

// ConfigPath returns the config.yaml path.
func ConfigPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, RalphDir, "config.yaml")
}

// SupervisorStatePath returns the C7 persisted-state snapshot path.
func SupervisorStatePath(workspaceDir string) string {
	return filepath.Join(workspaceDir, RalphDir, "supervisor.json")
}

// ContextSnapshotPath returns the C6c context snapshot path.
func ContextSnapshotPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, RalphDir, "context.json")
}

// TaskMemoryPath returns the C9 task memory snapshot path.
func TaskMemoryPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, RalphDir, "memory.json")
}

// DecompositionPath returns where a task's decomposition is persisted,
// keyed by task id.
func DecompositionPath(workspaceDir, taskID string) string {
	return filepath.Join(workspaceDir, RalphDir, "decompositions", taskID+".json")
}
