// Package cli is ralph's Cobra command surface: plan, run, status, verify,
// resume, config, init. Each command body loads config, constructs the
// relevant engine component, and calls one or two methods on it — the
// actual behavior lives in internal/supervisor, internal/planner, and the
// other core packages.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ralph",
	Short: "Ralph: a supervised agentic task loop",
	Long: `Ralph decomposes a task into subtasks, executes them under a
configurable concurrency cap, verifies the result, and iterates until the
task completes or a failure policy says to stop.

  ralph init               create a .ralph workspace in this directory
  ralph plan "<task>"      decompose a task into a validated plan
  ralph run <task-id>      drive the plan through PLAN/EXECUTE/VERIFY
  ralph status [task-id]   show the supervisor's current state
  ralph verify <task-id>   re-run verification without re-executing
  ralph resume <task-id>   restore a paused/in-flight run and continue
  ralph config             print the effective merged configuration`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to an additional config.yaml layered on top of the workspace config")
}

// Execute runs the root command, returning its error (if any) to main.
func Execute() error {
	return rootCmd.Execute()
}

func exitError(err error) error {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}
