package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective merged configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		workspaceDir, err := requireWorkspace()
		if err != nil {
			return exitError(err)
		}
		cfg, err := loadConfig(workspaceDir)
		if err != nil {
			return exitError(err)
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return exitError(err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
