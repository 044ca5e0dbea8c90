package cli

import (
	"github.com/spf13/cobra"

	"github.com/ralphcore/ralph/internal/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .ralph workspace in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := workspace.Init(initForce); err != nil {
			return exitError(err)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing .ralph workspace")
	rootCmd.AddCommand(initCmd)
}
