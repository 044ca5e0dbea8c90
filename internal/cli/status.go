package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ralphcore/ralph/internal/atomicfile"
	"github.com/ralphcore/ralph/internal/taskmemory"
	"github.com/ralphcore/ralph/internal/types"
	"github.com/ralphcore/ralph/internal/workspace"
)

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show the supervisor's current state and recent history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspaceDir, err := requireWorkspace()
		if err != nil {
			return exitError(err)
		}

		var snap types.PersistedSupervisorState
		if err := atomicfile.ReadJSON(workspace.SupervisorStatePath(workspaceDir), &snap); err != nil {
			fmt.Println("no run recorded yet; use 'ralph run <task-id>' to start one")
			return nil
		}

		fmt.Printf("state: %s\n", snap.CurrentState)
		if snap.TaskContext != nil {
			fmt.Printf("task:  %s (%s)\n", snap.TaskContext.TaskID, snap.TaskContext.Description)
			fmt.Printf("iteration: %d/%d\n", snap.TaskContext.Iteration, snap.TaskContext.MaxIterations)
			if snap.TaskContext.LastError != "" {
				fmt.Printf("last error: %s\n", snap.TaskContext.LastError)
			}
		}
		fmt.Println("\nhistory:")
		for _, t := range snap.StateHistory {
			fmt.Printf("  %s  %s -> %s  (%s)\n", t.Timestamp.Format("15:04:05"), t.From, t.To, t.Reason)
		}

		if len(args) == 1 {
			store := taskmemory.New()
			if err := store.Restore(workspace.TaskMemoryPath(workspaceDir)); err == nil {
				if m := store.Get(args[0]); m != nil {
					fmt.Printf("\ntask memory: status=%s files=%d commands=%d errors=%d\n",
						m.Status, len(m.FilesModified), len(m.CommandsExecuted), len(m.Errors))
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
