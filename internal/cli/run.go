package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/ralphcore/ralph/internal/atomicfile"
	"github.com/ralphcore/ralph/internal/claudecli"
	"github.com/ralphcore/ralph/internal/config"
	"github.com/ralphcore/ralph/internal/contextmgr"
	"github.com/ralphcore/ralph/internal/display"
	"github.com/ralphcore/ralph/internal/executor"
	"github.com/ralphcore/ralph/internal/resolver"
	"github.com/ralphcore/ralph/internal/rlog"
	"github.com/ralphcore/ralph/internal/supervisor"
	"github.com/ralphcore/ralph/internal/taskmemory"
	"github.com/ralphcore/ralph/internal/types"
	"github.com/ralphcore/ralph/internal/verifier"
	"github.com/ralphcore/ralph/internal/workspace"
)

var runModel string

var runCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Drive a saved plan through PLAN/EXECUTE/VERIFY to completion",
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
		if runModel != "" {
			cfg.Executable.Model = runModel
		}

		decomposition, err := loadDecomposition(workspaceDir, args[0])
		if err != nil {
			return exitError(err)
		}

		sup := supervisor.New(types.SupervisorConfig{
			MaxIterations:     cfg.Supervisor.MaxIterations,
			EnablePersistence: cfg.Supervisor.EnablePersistence,
		})
		if err := sup.Start(args[0], decomposition.OriginalTask); err != nil {
			return exitError(err)
		}

		if err := driveLoop(cmd.Context(), workspaceDir, args[0], cfg, sup, decomposition); err != nil {
			return exitError(err)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "override executable.model for this run")
	rootCmd.AddCommand(runCmd)
}

func loadDecomposition(workspaceDir, taskID string) (*types.TaskDecomposition, error) {
	var d types.TaskDecomposition
	if err := atomicfile.ReadJSON(workspace.DecompositionPath(workspaceDir, taskID), &d); err != nil {
		return nil, fmt.Errorf("loading plan %s: %w", taskID, err)
	}
	return &d, nil
}

// driveLoop runs the supervisor from its current state through to a
// terminal state, persisting the supervisor, context, and task-memory
// snapshots as it goes. Shared by run and resume.
func driveLoop(ctx context.Context, workspaceDir, taskID string, cfg *config.Config, sup *supervisor.Supervisor, decomposition *types.TaskDecomposition) error {
	disp := display.New()
	mem := taskmemory.New()
	cmgr := contextmgr.New(cfg.Context, nil)
	cmgr.Add(&types.ContextItem{
		Type:      types.ItemSystemPrompt,
		Content:   decomposition.OriginalTask,
		Priority:  types.PriorityCritical,
		CanRemove: false,
	})

	taskCtx := sup.GetPersistedState().TaskContext
	mem.StartTask(taskID, taskID, decomposition.OriginalTask)

	sup.OnTransition(func(t types.StateTransition) {
		rlog.Transition(taskID, t.From, t.To, t.Reason)
		disp.Transition(string(t.From), string(t.To), t.Reason)
	})

	var subtaskExec executor.SubtaskExecutor = claudecli.New(claudecli.Config{
		Binary:       cfg.Executable.Binary,
		Model:        cfg.Executable.Model,
		AllowedTools: cfg.Executable.AllowedTools,
		WorkDir:      workspaceDir,
	})
	res := resolver.New(resolver.Config{
		FailureMode:           types.FailurePolicy(cfg.Resolver.FailureMode),
		PerSubtaskRetryBudget: cfg.Resolver.PerSubtaskRetryBudget,
	})

	for {
		if err := persistSnapshots(workspaceDir, sup, cmgr, mem); err != nil {
			rlog.Error("persisting snapshots failed", map[string]interface{}{"taskId": taskID, "error": err.Error()})
		}
		switch sup.Current() {
		case types.StatePlan:
			taskCtx.Plan = decomposition
			if err := sup.Advance("plan ready"); err != nil {
				return err
			}

		case types.StateExecute:
			resetForRetry(decomposition)
			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " executing subtasks..."
			sp.Start()
			execCfg := executor.Config{
				MaxConcurrency:     cfg.Executor.MaxConcurrency,
				ProgressIntervalMs: int64(cfg.Executor.ProgressIntervalMs),
			}
			result := executor.Run(ctx, decomposition, res, subtaskExec, execCfg, taskCtx, func(ev executor.ProgressEvent) {
				disp.ExecutionProgress(ev.Completed, ev.Failed, ev.InProgress, ev.Pending, ev.Skipped)
			})
			sp.Stop()
			taskCtx.ExecutionResults = result.PerSubtaskResults
			reconcileStatuses(decomposition, result)
			recordExecutionMemory(mem, taskID, decomposition, result)
			if err := sup.Advance("execution finished"); err != nil {
				return err
			}

		case types.StateVerify:
			criteria := collectCriteria(decomposition)
			report := verifier.Verify(ctx, workspaceDir, decomposition.OriginalTask, criteria, collectAffectedFiles(decomposition), cfg.Verifier)
			taskCtx.VerificationResult = report
			rlog.VerificationCompleted(taskID, report.Summary, report.OverallPass)
			disp.VerificationReport(report.Summary.Passed, report.Summary.Failed, report.Summary.Warnings, report.Summary.Skipped, report.OverallPass)

			if report.OverallPass {
				if err := sup.Advance("verification passed"); err != nil {
					return err
				}
			} else if err := sup.Iterate("verification failed"); err != nil {
				taskCtx.LastError = err.Error()
				if ferr := sup.Fail(err.Error()); ferr != nil {
					return ferr
				}
			} else if sup.Current() == types.StateFailed && taskCtx.LastError == "" {
				taskCtx.LastError = "max iterations reached"
			}

		case types.StateComplete:
			mem.CompleteTask(taskID, "verification passed")
			return persistSnapshots(workspaceDir, sup, cmgr, mem)

		case types.StateFailed:
			mem.FailTask(taskID, taskCtx.LastError)
			if err := persistSnapshots(workspaceDir, sup, cmgr, mem); err != nil {
				return err
			}
			return fmt.Errorf("task %s failed: %s", taskID, taskCtx.LastError)

		default:
			return fmt.Errorf("run: unexpected supervisor state %s", sup.Current())
		}
	}
}

// resetForRetry moves failed subtasks back to pending so a new iteration's
// EXECUTE phase can retry them; completed and skipped subtasks are left
// alone.
func resetForRetry(d *types.TaskDecomposition) {
	for _, s := range d.Subtasks {
		if s.Status == types.StatusFailed {
			s.Status = types.StatusPending
		}
	}
}

func reconcileStatuses(d *types.TaskDecomposition, result *executor.Result) {
	for _, s := range d.Subtasks {
		if r, ok := result.PerSubtaskResults[s.ID]; ok {
			s.Result = r
			if r.Success {
				s.Status = types.StatusCompleted
			} else {
				s.Status = types.StatusFailed
			}
		} else if s.Status != types.StatusCompleted {
			s.Status = types.StatusSkipped
		}
	}
}

func recordExecutionMemory(mem *taskmemory.Store, taskID string, d *types.TaskDecomposition, result *executor.Result) {
	for _, s := range d.Subtasks {
		r, ok := result.PerSubtaskResults[s.ID]
		if !ok {
			continue
		}
		for _, f := range s.AffectedFiles {
			mem.RecordFileModified(taskID, f)
		}
		for _, c := range r.CommandsRun {
			mem.RecordCommand(taskID, c)
		}
		if !r.Success {
			mem.RecordError(taskID, fmt.Sprintf("%s: %s", s.ID, r.Error))
		}
	}
}

func collectCriteria(d *types.TaskDecomposition) []types.AcceptanceCriterion {
	var out []types.AcceptanceCriterion
	for _, s := range d.Subtasks {
		for _, c := range s.AcceptanceCriteria {
			out = append(out, types.AcceptanceCriterion{Description: c, VerificationMethod: types.VerifyManual, Required: true})
		}
	}
	for _, c := range d.SuccessCriteria {
		out = append(out, types.AcceptanceCriterion{Description: c, VerificationMethod: types.VerifyManual, Required: true})
	}
	return out
}

func collectAffectedFiles(d *types.TaskDecomposition) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range d.Subtasks {
		for _, f := range s.AffectedFiles {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func persistSnapshots(workspaceDir string, sup *supervisor.Supervisor, cmgr *contextmgr.Manager, mem *taskmemory.Store) error {
	if err := sup.Save(workspace.SupervisorStatePath(workspaceDir)); err != nil {
		return err
	}
	if err := cmgr.Save(workspace.ContextSnapshotPath(workspaceDir)); err != nil {
		return err
	}
	return mem.Save(workspace.TaskMemoryPath(workspaceDir))
}

