package cli

import (
	"github.com/ralphcore/ralph/internal/config"
	"github.com/ralphcore/ralph/internal/types"
	"github.com/ralphcore/ralph/internal/workspace"
)

// requireWorkspace finds the enclosing .ralph workspace or fails with a
// pointer to 'ralph init', the same contract every command but init relies on.
func requireWorkspace() (string, error) {
	dir, err := workspace.Find()
	if err != nil {
		return "", err
	}
	return dir, nil
}

// planTaskID derives a stable id for a decomposition from its title, reusing
// the same slug+hash scheme NewSubtaskID uses for subtasks so ids across the
// workspace share one recognizable shape.
func planTaskID(d *types.TaskDecomposition) string {
	return types.NewSubtaskID(0, d.Title)
}

// loadConfig loads the workspace config, layering the --config flag (if
// set) on top as the highest-precedence override.
func loadConfig(workspaceDir string) (*config.Config, error) {
	return config.LoadWithOverride(workspaceDir, cfgFile)
}
