// Package verifier implements the Result Verifier (C8): running each
// subtask's or plan's acceptance criteria and aggregating a report.
package verifier

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ralphcore/ralph/internal/types"
)

// DefaultConfig mirrors the teacher's build/test verification defaults.
func DefaultConfig() types.VerifierConfig {
	return types.VerifierConfig{
		RunTests:         true,
		CommandTimeoutMs: 120_000,
	}
}

// Verify runs every acceptance criterion plus the affected-file checks for
// one task, then the configured build/test/typecheck/lint commands.
func Verify(ctx context.Context, workDir, taskDescription string, criteria []types.AcceptanceCriterion, affectedFiles []string, cfg types.VerifierConfig) *types.VerificationReport {
	report := &types.VerificationReport{ID: uuid.NewString(), TaskDescription: taskDescription}

	for i, c := range criteria {
		report.Checks = append(report.Checks, runCriterion(ctx, workDir, fmt.Sprintf("criterion-%d", i), c, cfg))
	}
	for _, f := range affectedFiles {
		report.Checks = append(report.Checks, checkFileChanged(workDir, f))
	}
	if cfg.RunTests {
		report.Checks = append(report.Checks, runNamedCommand(ctx, workDir, types.CheckTest, "tests", cfg.TestCommand, cfg))
	}
	if cfg.RunTypeCheck {
		report.Checks = append(report.Checks, runNamedCommand(ctx, workDir, types.CheckTypeCheck, "type check", cfg.TypeCheckCommand, cfg))
	}
	if cfg.RunLint {
		report.Checks = append(report.Checks, runNamedCommand(ctx, workDir, types.CheckLint, "lint", cfg.LintCommand, cfg))
	}

	report.Summary = summarize(report.Checks)
	report.Recommendations = recommendations(report.Checks)
	report.OverallPass = overallPass(criteria, report.Checks)
	return report
}

// overallPass implements spec: every required criterion's check must be
// passed, and no configured gate (tests, type check) may be failed. A
// manual-only plan leaves every criterion check skipped, which is not
// passed, so an all-manual plan with required criteria never auto-passes.
func overallPass(criteria []types.AcceptanceCriterion, checks []types.VerificationCheck) bool {
	for i, c := range criteria {
		if c.Required && checks[i].Status != types.CheckPassed {
			return false
		}
	}
	for _, c := range checks {
		if (c.Type == types.CheckTest || c.Type == types.CheckTypeCheck) && c.Status == types.CheckFailed {
			return false
		}
	}
	return true
}

func runCriterion(ctx context.Context, workDir, id string, c types.AcceptanceCriterion, cfg types.VerifierConfig) types.VerificationCheck {
	switch c.VerificationMethod {
	case types.VerifyManual:
		return types.VerificationCheck{ID: id, Type: types.CheckCriterion, Status: types.CheckSkipped, Message: "manual verification: " + c.Description}
	case types.VerifyCommand:
		return runCommandCriterion(ctx, workDir, id, c, cfg)
	default: // VerifyAutomated
		return runAutomatedCriterion(workDir, id, c)
	}
}

func runAutomatedCriterion(workDir, id string, c types.AcceptanceCriterion) types.VerificationCheck {
	if c.File == "" {
		return types.VerificationCheck{ID: id, Type: types.CheckCriterion, Status: types.CheckWarning, Message: "automated criterion has no file to inspect: " + c.Description}
	}
	path := c.File
	if !strings.HasPrefix(path, "/") {
		path = workDir + "/" + path
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return types.VerificationCheck{ID: id, Type: types.CheckFileChange, Status: types.CheckFailed, Message: "file not found: " + c.File, Details: err.Error()}
	}
	if len(content) == 0 {
		return types.VerificationCheck{ID: id, Type: types.CheckFileChange, Status: types.CheckWarning, Message: c.File + " is empty"}
	}
	if c.ExpectedPattern == "" {
		return types.VerificationCheck{ID: id, Type: types.CheckCriterion, Status: types.CheckPassed, Message: c.Description}
	}
	matched, err := matchPattern(string(content), c.ExpectedPattern, c.PatternIsRegex)
	if err != nil {
		return types.VerificationCheck{ID: id, Type: types.CheckPattern, Status: types.CheckFailed, Message: "invalid pattern", Details: err.Error()}
	}
	if !matched {
		return types.VerificationCheck{
			ID: id, Type: types.CheckPattern, Status: types.CheckFailed,
			Message: "expected pattern not found in " + c.File,
			Details: patternDiff(c.ExpectedPattern, string(content)),
		}
	}
	return types.VerificationCheck{ID: id, Type: types.CheckPattern, Status: types.CheckPassed, Message: c.Description}
}

func matchPattern(content, pattern string, isRegex bool) (bool, error) {
	if isRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(content), nil
	}
	return strings.Contains(content, pattern), nil
}

// patternDiff renders a unified diff between what was expected and a short
// excerpt of what is actually in the file, to aid the recommendation text.
func patternDiff(pattern, content string) string {
	excerpt := content
	const maxExcerpt = 400
	if len(excerpt) > maxExcerpt {
		excerpt = excerpt[:maxExcerpt]
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(pattern),
		B:        difflib.SplitLines(excerpt),
		FromFile: "expected",
		ToFile:   "actual (truncated)",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func runCommandCriterion(ctx context.Context, workDir, id string, c types.AcceptanceCriterion, cfg types.VerifierConfig) types.VerificationCheck {
	if c.Command == "" {
		return types.VerificationCheck{ID: id, Type: types.CheckCommand, Status: types.CheckWarning, Message: "command criterion has no command: " + c.Description}
	}
	status, output := runShell(ctx, workDir, c.Command, cfg.CommandTimeoutMs)
	if status != types.CheckPassed {
		return types.VerificationCheck{ID: id, Type: types.CheckCommand, Status: status, Message: "command failed: " + c.Command, Details: output}
	}
	return types.VerificationCheck{ID: id, Type: types.CheckCommand, Status: types.CheckPassed, Message: c.Description}
}

func checkFileChanged(workDir, file string) types.VerificationCheck {
	path := file
	if !strings.HasPrefix(path, "/") {
		path = workDir + "/" + path
	}
	info, err := os.Stat(path)
	if err != nil {
		return types.VerificationCheck{ID: "file:" + file, Type: types.CheckFileChange, Status: types.CheckFailed, Message: "expected file missing: " + file, Details: err.Error()}
	}
	if info.Size() == 0 {
		return types.VerificationCheck{ID: "file:" + file, Type: types.CheckFileChange, Status: types.CheckWarning, Message: file + " is empty"}
	}
	return types.VerificationCheck{ID: "file:" + file, Type: types.CheckFileChange, Status: types.CheckPassed, Message: file + " exists"}
}

func runNamedCommand(ctx context.Context, workDir string, checkType types.CheckType, name, command string, cfg types.VerifierConfig) types.VerificationCheck {
	if command == "" {
		system, ok := DetectBuildCommand(workDir)
		if !ok {
			return types.VerificationCheck{ID: string(checkType), Type: checkType, Status: types.CheckSkipped, Message: "no build system detected for " + name}
		}
		command = system.TestCmd
		if checkType != types.CheckTest {
			command = system.BuildCmd
		}
	}
	status, output := runShell(ctx, workDir, command, cfg.CommandTimeoutMs)
	msg := name + " passed"
	if status != types.CheckPassed {
		msg = name + " failed: " + command
	}
	return types.VerificationCheck{ID: string(checkType), Type: checkType, Status: status, Message: msg, Details: output}
}

func runShell(ctx context.Context, workDir, command string, timeoutMs int64) (types.CheckStatus, string) {
	if timeoutMs <= 0 {
		timeoutMs = 120_000
	}
	cctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(cctx, "bash", "-c", command)
	cmd.Dir = workDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return types.CheckFailed, string(output)
	}
	return types.CheckPassed, string(output)
}

func summarize(checks []types.VerificationCheck) types.VerificationSummary {
	s := types.VerificationSummary{Total: len(checks)}
	for _, c := range checks {
		switch c.Status {
		case types.CheckPassed:
			s.Passed++
		case types.CheckFailed:
			s.Failed++
		case types.CheckWarning:
			s.Warnings++
		case types.CheckSkipped:
			s.Skipped++
		}
	}
	denom := s.Total - s.Skipped
	if denom > 0 {
		s.PassRate = float64(s.Passed) / float64(denom)
	}
	return s
}

func recommendations(checks []types.VerificationCheck) []string {
	var recs []string
	for _, c := range checks {
		if c.Status != types.CheckFailed {
			continue
		}
		rec := "fix: " + c.Message
		if c.Details != "" {
			rec += "\n" + c.Details
		}
		recs = append(recs, rec)
	}
	return recs
}
