package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ralphcore/ralph/internal/atomicfile"
	"github.com/ralphcore/ralph/internal/planner"
	"github.com/ralphcore/ralph/internal/types"
	"github.com/ralphcore/ralph/internal/validator"
	"github.com/ralphcore/ralph/internal/workspace"
)

var (
	planTemplatesFile string
	planConstraints   []string
	planSuccess       []string
	planMaxSubtasks   int
	planFormat        string
	planOut           string
)

var planCmd = &cobra.Command{
	Use:   "plan \"<task description>\" --templates subtasks.json",
	Short: "Decompose a task into a validated plan",
	Long: `Decompose a task description plus a raw subtask-template file into a
TaskDecomposition, validate it structurally, and persist it under
.ralph/decompositions/<task-id>.json.

The templates file is a JSON array of subtask templates:

  [{"title": "add endpoint", "type": "code", "dependsOnTitles": []}, ...]

Use --format yaml to also print the resulting plan as YAML, the
human-editable form the teacher's own planning documents used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspaceDir, err := requireWorkspace()
		if err != nil {
			return exitError(err)
		}
		cfg, err := loadConfig(workspaceDir)
		if err != nil {
			return exitError(err)
		}

		var templates []types.SubtaskTemplate
		if planTemplatesFile != "" {
			raw, err := os.ReadFile(planTemplatesFile)
			if err != nil {
				return exitError(fmt.Errorf("reading templates file: %w", err))
			}
			if err := json.Unmarshal(raw, &templates); err != nil {
				return exitError(fmt.Errorf("parsing templates file: %w", err))
			}
		}
		if len(templates) == 0 {
			return exitError(fmt.Errorf("no subtask templates given; pass --templates"))
		}

		req := types.DecompositionRequest{
			Task:            args[0],
			Constraints:     planConstraints,
			Templates:       templates,
			MaxSubtasks:     planMaxSubtasks,
			SuccessCriteria: planSuccess,
		}
		raw, err := json.Marshal(req)
		if err != nil {
			return exitError(err)
		}
		if err := validator.ValidateRequestSchema(raw); err != nil {
			return exitError(err)
		}

		decomposition, valErrs := planner.Decompose(req)
		if valErrs.HasErrors() {
			fmt.Print(valErrs.ToReport())
			return exitError(valErrs)
		}

		vcfg := validator.Config{
			MaxSubtasks:          cfg.Validator.MaxSubtasks,
			MaxDependencyDepth:   cfg.Validator.MaxDependencyDepth,
			MinCompletenessScore: cfg.Validator.MinCompletenessScore,
		}
		report := validator.Validate(decomposition, vcfg)
		fmt.Printf("plan: %s (%d subtasks)\n", decomposition.Title, len(decomposition.Subtasks))
		fmt.Printf("completeness: %.2f  coverage: %.2f  valid: %v\n", report.CompletenessScore, report.Coverage, report.IsValid)
		if report.Warnings.HasErrors() {
			fmt.Print(report.Warnings.ToReport())
		}
		if report.Errors.HasErrors() {
			fmt.Print(report.Errors.ToReport())
			return exitError(fmt.Errorf("plan failed validation"))
		}

		taskID := planTaskID(decomposition)
		path := workspace.DecompositionPath(workspaceDir, taskID)
		if err := atomicfile.WriteJSON(path, decomposition); err != nil {
			return exitError(err)
		}
		fmt.Printf("\nsaved %s\ntask id: %s\n", path, taskID)

		if planFormat == "yaml" {
			out, err := yaml.Marshal(decomposition)
			if err != nil {
				return exitError(err)
			}
			if planOut != "" {
				if err := os.WriteFile(planOut, out, 0644); err != nil {
					return exitError(err)
				}
				fmt.Println("exported", planOut)
			} else {
				fmt.Println("---")
				fmt.Print(string(out))
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planTemplatesFile, "templates", "", "JSON file of subtask templates (required)")
	planCmd.Flags().StringArrayVar(&planConstraints, "constraint", nil, "a constraint on the plan (repeatable)")
	planCmd.Flags().StringArrayVar(&planSuccess, "success-criteria", nil, "a plan-level success criterion (repeatable)")
	planCmd.Flags().IntVar(&planMaxSubtasks, "max-subtasks", 0, "cap on subtask count (0 = validator default)")
	planCmd.Flags().StringVar(&planFormat, "format", "", "also export the plan in this format (yaml)")
	planCmd.Flags().StringVar(&planOut, "out", "", "write the --format export to this path instead of stdout")
	rootCmd.AddCommand(planCmd)
}
