package contextmgr

import (
	"fmt"
	"time"

	"github.com/ralphcore/ralph/internal/types"
)

// Summarizer produces a deterministic summary for an item whose content is
// being compressed. The default truncates; callers may inject one backed by
// an LM, kept entirely outside this package's knowledge.
type Summarizer func(item *types.ContextItem) string

func defaultSummarizer(item *types.ContextItem) string {
	header := fmt.Sprintf("[%s summary]", item.Type)
	body := item.Content
	const maxBody = 120
	if len(body) > maxBody {
		body = body[:maxBody] + "..."
	}
	return header + " " + body
}

// relevanceThreshold below which a summarisable item becomes eligible for
// phase 1 (summarise) of compression.
const relevanceThreshold = 0.4

// Compress runs the two-phase eviction documented in spec.md 4.6 until
// currentTokens <= targetTokens or only minItemsToKeep items remain.
func (m *Manager) Compress(targetTokens int) types.CompressionResult {
	before := m.CurrentTokens()
	if before <= targetTokens {
		return types.CompressionResult{NewTokenCount: before, CompressionRatio: 1}
	}

	now := time.Now()
	relCfg := DefaultRelevanceConfig()
	summarizer := m.summarizer
	if summarizer == nil {
		summarizer = defaultSummarizer
	}

	summarizedCount := 0
	scores := ScoreAll(m.items, relCfg, now)
	for _, it := range m.items {
		if m.CurrentTokens() <= targetTokens {
			break
		}
		if !it.CanSummarize || it.Summary != "" {
			continue
		}
		if it.Priority != types.PriorityMedium && it.Priority != types.PriorityLow && it.Priority != types.PriorityEphemeral {
			continue
		}
		if scores[it.ID] >= relevanceThreshold {
			continue
		}
		it.Summary = summarizer(it)
		it.Type = types.ItemSummary
		it.TokenCount = m.counter(it.Summary)
		summarizedCount++
	}

	removedCount := 0
	if m.CurrentTokens() > targetTokens {
		scores = ScoreAll(m.items, relCfg, now)
		candidates := append([]*types.ContextItem(nil), m.items...)
		sortByRelevanceAscending(candidates, scores)

		keep := make(map[string]bool, len(m.items))
		for _, it := range m.items {
			keep[it.ID] = true
		}

		for _, it := range candidates {
			if m.CurrentTokens() <= targetTokens {
				break
			}
			if len(m.items) <= m.cfg.MinItemsToKeep {
				break
			}
			if it.Priority == types.PriorityCritical || !it.CanRemove {
				continue
			}
			m.removeByID(it.ID)
			removedCount++
		}
	}

	after := m.CurrentTokens()
	ratio := 1.0
	if before > 0 {
		ratio = float64(after) / float64(before)
	}
	return types.CompressionResult{
		RemovedCount:     removedCount,
		SummarizedCount:  summarizedCount,
		TokensSaved:      before - after,
		NewTokenCount:    after,
		CompressionRatio: ratio,
	}
}

func (m *Manager) removeByID(id string) {
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return
		}
	}
}
