// Package planner implements the deterministic Task Planner (C2): it never
// calls a remote model itself. Model-assisted decomposition, if any, is an
// upstream step that produces the SubtaskTemplates this package consumes.
package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/ralphcore/ralph/internal/types"
)

var defaultAcceptanceCriteria = []string{
	"The described change compiles",
	"Tests mentioned in description pass",
}

// Decompose turns a DecompositionRequest into a TaskDecomposition. Unknown
// titles referenced by DependsOnTitles are reported as validation errors;
// the decomposition is still returned with those dependencies dropped, so
// callers can choose whether to treat the planner's own errors as fatal or
// hand the partial result to the Plan Validator for a fuller report.
func Decompose(req types.DecompositionRequest) (*types.TaskDecomposition, *types.ValidationErrors) {
	var verrs types.ValidationErrors

	titleToID := make(map[string]string, len(req.Templates))
	subtasks := make([]*types.Subtask, 0, len(req.Templates))

	for i, tmpl := range req.Templates {
		id := types.NewSubtaskID(i, tmpl.Title)
		titleToID[tmpl.Title] = id
		subtasks = append(subtasks, &types.Subtask{
			ID:                 id,
			Title:              tmpl.Title,
			Description:        tmpl.Description,
			Type:               tmpl.Type,
			Priority:           orDefaultPriority(tmpl.Priority),
			Status:             types.StatusPending,
			AffectedFiles:      tmpl.AffectedFiles,
			AcceptanceCriteria: tmpl.AcceptanceCriteria,
		})
	}

	for i, tmpl := range req.Templates {
		s := subtasks[i]
		for _, depTitle := range tmpl.DependsOnTitles {
			depID, ok := titleToID[depTitle]
			if !ok {
				verrs.Add(fmt.Sprintf("templates[%d].dependsOnTitles", i), "a title present elsewhere in templates", depTitle,
					fmt.Sprintf("no subtask titled %q exists in this decomposition", depTitle))
				continue
			}
			if depID == s.ID {
				verrs.Add(fmt.Sprintf("templates[%d].dependsOnTitles", i), "a different subtask's title", depTitle,
					"a subtask cannot depend on itself")
				continue
			}
			s.DependsOn = append(s.DependsOn, depID)
		}
		if s.Effort.Level == "" && s.Effort.Hours == 0 {
			s.Effort = EstimateEffort(tmpl)
		}
		if len(s.AcceptanceCriteria) == 0 {
			s.AcceptanceCriteria = heuristicAcceptanceCriteria(tmpl)
		}
	}

	d := &types.TaskDecomposition{
		OriginalTask: req.Task,
		Title:        deriveTitle(req.Task),
		Subtasks:     subtasks,
		CreatedAt:    time.Now(),
		Status:       types.PlanDraft,
	}
	d.DeriveRootsAndLeaves()
	d.SuccessCriteria = deriveSuccessCriteria(req, subtasks)
	d.Risks = deriveRisks(subtasks)

	return d, &verrs
}

func orDefaultPriority(p types.Priority) types.Priority {
	if p.IsValid() {
		return p
	}
	return types.PriorityP2
}

func heuristicAcceptanceCriteria(tmpl types.SubtaskTemplate) []string {
	criteria := append([]string(nil), defaultAcceptanceCriteria...)
	if tmpl.Type == types.SubtaskDocumentation {
		criteria = append(criteria, "Documentation reflects the described change")
	}
	return criteria
}

func deriveTitle(task string) string {
	task = strings.TrimSpace(task)
	if len(task) > 60 {
		return task[:60] + "..."
	}
	return task
}

// deriveSuccessCriteria unions explicit goal-level criteria with the
// per-subtask acceptance criteria, de-duplicating while preserving order.
func deriveSuccessCriteria(req types.DecompositionRequest, subtasks []*types.Subtask) []string {
	seen := map[string]bool{}
	var out []string
	add := func(c string) {
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}
	for _, c := range req.SuccessCriteria {
		add(c)
	}
	for _, s := range subtasks {
		for _, c := range s.AcceptanceCriteria {
			add(c)
		}
	}
	return out
}

// deriveRisks applies simple heuristics over the subtask set's shape.
func deriveRisks(subtasks []*types.Subtask) []string {
	var risks []string

	maxDeps := 0
	for _, s := range subtasks {
		if len(s.DependsOn) > maxDeps {
			maxDeps = len(s.DependsOn)
		}
	}
	if maxDeps >= 4 {
		risks = append(risks, "high number of dependencies on at least one subtask")
	}

	if chainDepth(subtasks) >= 5 {
		risks = append(risks, "deep dependency chain increases serial execution time")
	}

	lowConfidence := 0
	for _, s := range subtasks {
		if s.Effort.Confidence > 0 && s.Effort.Confidence < 0.6 {
			lowConfidence++
		}
	}
	if lowConfidence > 0 {
		risks = append(risks, "low-confidence effort estimates present")
	}

	epicWithManyFiles := 0
	for _, s := range subtasks {
		if s.Effort.Level == types.EffortEpic && len(s.AffectedFiles) > 1 {
			epicWithManyFiles++
		}
	}
	if epicWithManyFiles > 0 {
		risks = append(risks, "epic-sized subtask touching multiple files should likely be split")
	}

	return risks
}

func chainDepth(subtasks []*types.Subtask) int {
	byID := make(map[string]*types.Subtask, len(subtasks))
	for _, s := range subtasks {
		byID[s.ID] = s
	}
	memo := map[string]int{}
	var depth func(id string, visiting map[string]bool) int
	depth = func(id string, visiting map[string]bool) int {
		if d, ok := memo[id]; ok {
			return d
		}
		if visiting[id] {
			return 0 // cycle guard; cycle reporting is the dag package's job
		}
		visiting[id] = true
		s := byID[id]
		best := 0
		if s != nil {
			for _, dep := range s.DependsOn {
				if d := depth(dep, visiting); d+1 > best {
					best = d + 1
				}
			}
		}
		visiting[id] = false
		memo[id] = best
		return best
	}
	max := 0
	for _, s := range subtasks {
		if d := depth(s.ID, map[string]bool{}); d > max {
			max = d
		}
	}
	return max
}
