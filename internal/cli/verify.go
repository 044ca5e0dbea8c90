package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ralphcore/ralph/internal/verifier"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <task-id>",
	Short: "Re-run verification for a saved plan without re-executing subtasks",
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

		report := verifier.Verify(cmd.Context(), workspaceDir, decomposition.OriginalTask,
			collectCriteria(decomposition), collectAffectedFiles(decomposition), cfg.Verifier)

		for _, c := range report.Checks {
			fmt.Printf("[%s] %s: %s\n", c.Status, c.Type, c.Message)
		}
		fmt.Printf("\npassed=%d failed=%d warnings=%d skipped=%d overallPass=%v\n",
			report.Summary.Passed, report.Summary.Failed, report.Summary.Warnings, report.Summary.Skipped, report.OverallPass)
		for _, r := range report.Recommendations {
			fmt.Println("- " + r)
		}
		if !report.OverallPass {
			return exitError(fmt.Errorf("verification failed"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
