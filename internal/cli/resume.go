package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ralphcore/ralph/internal/supervisor"
	"github.com/ralphcore/ralph/internal/types"
	"github.com/ralphcore/ralph/internal/workspace"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <task-id>",
	Short: "Restore a paused or in-flight run from its persisted state and continue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspaceDir, err := requireWorkspace()
		if err != nil {
			return exitError(err)
		}
		cfg, err := loadConfig(workspaceDir)
		if err != nil {
			return exitError(err)
		}
		decomposition, err := loadDecomposition(workspaceDir, args[0])
		if err != nil {
			return exitError(err)
		}

		sup := supervisor.New(types.SupervisorConfig{
			MaxIterations:     cfg.Supervisor.MaxIterations,
			EnablePersistence: cfg.Supervisor.EnablePersistence,
		})
		if err := sup.Restore(workspace.SupervisorStatePath(workspaceDir)); err != nil {
			return exitError(fmt.Errorf("no persisted state to resume for %s: %w", args[0], err))
		}
		if sup.Current() == types.StatePaused {
			if err := sup.Resume("resumed via CLI"); err != nil {
				return exitError(err)
			}
		}
		if sup.Current().IsTerminal() {
			fmt.Printf("task %s is already in terminal state %s; nothing to resume\n", args[0], sup.Current())
			return nil
		}

		if err := driveLoop(cmd.Context(), workspaceDir, args[0], cfg, sup, decomposition); err != nil {
			return exitError(err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
