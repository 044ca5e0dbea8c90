package planner

import (
	"strings"

	"github.com/ralphcore/ralph/internal/types"
)

// EstimateEffort fills a missing effort estimate via cumulative heuristics
// over description length, affected-file count, subtask type, and whether
// tests are mentioned (C2a). Confidence starts at 1.0 and is docked 0.1 for
// each missing field (files, criteria, short description), floored at 0.3.
func EstimateEffort(tmpl types.SubtaskTemplate) types.EffortEstimate {
	level := baseLevel(tmpl)

	confidence := 1.0
	if len(tmpl.AffectedFiles) == 0 {
		confidence -= 0.1
	}
	if len(tmpl.AcceptanceCriteria) == 0 {
		confidence -= 0.1
	}
	if len(tmpl.Description) < 30 {
		confidence -= 0.1
	}
	if confidence < 0.3 {
		confidence = 0.3
	}

	return types.EffortEstimate{
		Level:      level,
		Hours:      level.Midpoint(),
		Confidence: confidence,
	}
}

func baseLevel(tmpl types.SubtaskTemplate) types.EffortLevel {
	score := 0

	switch {
	case len(tmpl.Description) > 400:
		score += 3
	case len(tmpl.Description) > 150:
		score += 2
	case len(tmpl.Description) > 30:
		score += 1
	}

	switch {
	case len(tmpl.AffectedFiles) > 5:
		score += 3
	case len(tmpl.AffectedFiles) > 2:
		score += 2
	case len(tmpl.AffectedFiles) > 0:
		score += 1
	}

	switch tmpl.Type {
	case types.SubtaskRefactor, types.SubtaskResearch:
		score += 1
	case types.SubtaskTest, types.SubtaskDocumentation:
		score -= 1
	}

	lower := strings.ToLower(tmpl.Description + " " + tmpl.Title)
	if strings.Contains(lower, "test") {
		score += 1
	}

	switch {
	case score <= 0:
		return types.EffortTrivial
	case score == 1:
		return types.EffortSmall
	case score <= 3:
		return types.EffortMedium
	case score <= 5:
		return types.EffortLarge
	default:
		return types.EffortEpic
	}
}
