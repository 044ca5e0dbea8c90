// Package validator implements the Plan Validator (C3): structural,
// dependency, per-subtask, and completeness checks over a TaskDecomposition.
package validator

import (
	"strconv"
	"strings"

	"github.com/ralphcore/ralph/internal/dag"
	"github.com/ralphcore/ralph/internal/types"
)

// Config bounds the validator's checks.
type Config struct {
	MaxSubtasks           int
	MaxDependencyDepth    int
	MinCompletenessScore  float64
}

// DefaultConfig mirrors the bounds implied by spec.md's scenarios.
func DefaultConfig() Config {
	return Config{
		MaxSubtasks:          50,
		MaxDependencyDepth:   10,
		MinCompletenessScore: 0.6,
	}
}

// Report is the full result of validating a decomposition.
type Report struct {
	IsValid           bool
	Errors            types.ValidationErrors
	Warnings          types.ValidationErrors
	CompletenessScore float64
	Coverage          float64 // fraction of "important words" from the task covered by subtask text
}

var stopWords = map[string]bool{
	"the": true, "and": true, "that": true, "with": true, "this": true,
	"from": true, "have": true, "will": true, "into": true, "also": true,
	"then": true, "them": true, "they": true, "when": true, "what": true,
	"should": true, "could": true, "would": true,
}

// Validate runs all four checks and returns the aggregate report.
func Validate(d *types.TaskDecomposition, cfg Config) *Report {
	r := &Report{}

	structural(d, cfg, &r.Errors, &r.Warnings)
	dependencies(d, cfg, &r.Errors, &r.Warnings)
	perSubtask(d, &r.Errors, &r.Warnings)

	base, coverage := completenessBase(d, &r.Warnings)
	r.Coverage = coverage
	r.CompletenessScore = clamp(base - 0.15*float64(len(r.Errors.Errors)) - 0.05*float64(len(r.Warnings.Errors)))
	if len(d.Subtasks) == 0 {
		r.CompletenessScore = 0
	}

	r.IsValid = !r.Errors.HasErrors() && r.CompletenessScore >= cfg.MinCompletenessScore
	return r
}

func structural(d *types.TaskDecomposition, cfg Config, errs, warns *types.ValidationErrors) {
	if len(d.Subtasks) == 0 {
		errs.Add("subtasks", "at least one subtask", 0, "EMPTY_PLAN: decomposition has no subtasks")
		return
	}
	if len(d.SuccessCriteria) == 0 {
		errs.Add("successCriteria", "at least one success criterion", 0, "plan must declare at least one success criterion")
	}
	if cfg.MaxSubtasks > 0 && len(d.Subtasks) > cfg.MaxSubtasks {
		errs.Add("subtasks", "<= "+strconv.Itoa(cfg.MaxSubtasks), len(d.Subtasks), "too many subtasks for a single decomposition")
	}
	for i, s := range d.Subtasks {
		if s.Title == "" {
			errs.Add(field(i, "title"), "non-empty string", s.Title, "title is required")
		}
	}
}

func dependencies(d *types.TaskDecomposition, cfg Config, errs, warns *types.ValidationErrors) {
	ids := make(map[string]bool, len(d.Subtasks))
	for _, s := range d.Subtasks {
		ids[s.ID] = true
	}
	for i, s := range d.Subtasks {
		for _, dep := range s.DependsOn {
			if dep == s.ID {
				errs.Add(field(i, "dependsOn"), "a different subtask's id", dep, "SELF_DEPENDENCY: a subtask cannot depend on itself")
				continue
			}
			if !ids[dep] {
				errs.Add(field(i, "dependsOn"), "an existing subtask id", dep, "dependency references an unknown subtask")
			}
		}
	}

	g := dag.Build(d.Subtasks)
	for _, cycle := range g.Cycles {
		errs.Add("subtasks", "an acyclic dependency graph", cycle, "CIRCULAR_DEPENDENCY: "+strings.Join(cycle, " -> "))
	}

	if cfg.MaxDependencyDepth > 0 && len(g.Levels) > cfg.MaxDependencyDepth {
		warns.Add("subtasks", "<= "+strconv.Itoa(cfg.MaxDependencyDepth)+" levels deep", len(g.Levels), "dependency chain exceeds the configured maximum depth")
	}
}

func perSubtask(d *types.TaskDecomposition, errs, warns *types.ValidationErrors) {
	seen := map[string]bool{}
	for i, s := range d.Subtasks {
		if seen[s.ID] {
			errs.Add(field(i, "id"), "a unique id", s.ID, "duplicate subtask id")
		}
		seen[s.ID] = true

		if s.Title == "" {
			continue // already reported by structural()
		}
		if s.Description == "" {
			warns.Add(field(i, "description"), "non-empty description", s.Description, "subtask has no description")
		}
		if len(s.AcceptanceCriteria) == 0 {
			warns.Add(field(i, "acceptanceCriteria"), "at least one acceptance criterion", 0, "subtask has no acceptance criteria")
		}
		if s.Effort.Confidence > 0 && s.Effort.Confidence < 0.5 {
			warns.Add(field(i, "effort.confidence"), ">= 0.5", s.Effort.Confidence, "low-confidence effort estimate")
		}
	}
}

// completenessBase computes the score before the error/warning penalty in
// Validate, plus the raw keyword coverage fraction.
func completenessBase(d *types.TaskDecomposition, warns *types.ValidationErrors) (float64, float64) {
	score := 1.0

	taskWords := importantWords(d.OriginalTask)
	var subtaskText strings.Builder
	hasTests := false
	hasDocs := false
	totalCriteria := 0
	filesSpecified := false

	for _, s := range d.Subtasks {
		subtaskText.WriteString(" " + s.Title + " " + s.Description)
		totalCriteria += len(s.AcceptanceCriteria)
		if len(s.AffectedFiles) > 0 {
			filesSpecified = true
		}
		if s.Type == types.SubtaskTest || strings.Contains(strings.ToLower(s.Title), "test") {
			hasTests = true
		}
		if s.Type == types.SubtaskDocumentation {
			hasDocs = true
		}
	}
	subtaskWords := importantWords(subtaskText.String())

	missing := 0
	for w := range taskWords {
		if !subtaskWords[w] {
			missing++
		}
	}
	coverage := 1.0
	if len(taskWords) > 0 {
		coverage = 1.0 - float64(missing)/float64(len(taskWords))
		if float64(missing)/float64(len(taskWords)) > 0.3 {
			warns.Add("subtasks", "coverage of important task words >= 70%", coverage, "incomplete coverage: subtasks do not mention a significant portion of the task description")
		}
	}
	if !hasTests {
		warns.Add("subtasks", "a test-typed or test-titled subtask", hasTests, "no test coverage subtask found")
	}

	if len(d.Subtasks) > 0 {
		mean := float64(totalCriteria) / float64(len(d.Subtasks))
		if mean >= 2 {
			score += 0.05
		}
	}
	if hasTests {
		score += 0.05
	}
	if hasDocs {
		score += 0.02
	}
	if !filesSpecified {
		score -= 0.10
	}

	return score, clamp(coverage)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func importantWords(text string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:()[]{}\"'")
		if len(w) > 4 && !stopWords[w] {
			words[w] = true
		}
	}
	return words
}

func field(i int, name string) string {
	return "subtasks[" + strconv.Itoa(i) + "]." + name
}
