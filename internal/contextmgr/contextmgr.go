// Package contextmgr implements the Context Manager (C6): a token-budgeted,
// insertion-ordered store of ContextItems with priority-based eviction.
package contextmgr

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ralphcore/ralph/internal/types"
)

// TokenCounter estimates the token cost of a string. The default is
// ceil(len/4); callers may inject a model-specific counter.
type TokenCounter func(text string) int

func defaultTokenCounter(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}

// Manager is the Context Manager. It is single-owner: callers must not
// mutate items concurrently from multiple goroutines.
type Manager struct {
	cfg        types.ContextManagerConfig
	items      []*types.ContextItem
	counter    TokenCounter
	summarizer Summarizer
}

// New constructs a Manager bound by cfg. A nil counter uses the default
// length/4 estimator.
func New(cfg types.ContextManagerConfig, counter TokenCounter) *Manager {
	if counter == nil {
		counter = defaultTokenCounter
	}
	return &Manager{cfg: cfg, counter: counter}
}

// SetSummarizer installs a custom Summarizer for the compressor's phase 1.
func (m *Manager) SetSummarizer(s Summarizer) {
	m.summarizer = s
}

// CurrentTokens returns the sum of every item's current token count (I5).
func (m *Manager) CurrentTokens() int {
	total := 0
	for _, it := range m.items {
		total += it.TokenCount
	}
	return total
}

// Add appends a new item, assigning it an id if empty, and triggers
// compression if the configured thresholds are crossed and autoCompress is on.
func (m *Manager) Add(item *types.ContextItem) *CompressionResult {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.LastAccessedAt = now
	if item.TokenCount == 0 {
		item.TokenCount = m.counter(item.EffectiveContent())
	}
	m.items = append(m.items, item)

	if m.cfg.AutoCompress && m.cfg.MaxTokens > 0 {
		threshold := float64(m.cfg.MaxTokens) * m.cfg.CriticalThreshold
		if float64(m.CurrentTokens()+m.cfg.ReservedForResponse) >= threshold {
			target := int(float64(m.cfg.MaxTokens) * m.cfg.CompressionTarget)
			r := m.Compress(target)
			return &r
		}
	}
	return nil
}

// UpdateAccess bumps lastAccessedAt and accessCount for id, used by the
// relevance scorer's frequency factor.
func (m *Manager) UpdateAccess(id string) {
	for _, it := range m.items {
		if it.ID == id {
			it.LastAccessedAt = time.Now()
			it.AccessCount++
			return
		}
	}
}

// GetWindow returns every item in insertion order, with summaries
// substituted for items that have been summarised (a summarised item is
// returned as a copy whose Content is its Summary).
func (m *Manager) GetWindow() []*types.ContextItem {
	out := make([]*types.ContextItem, len(m.items))
	for i, it := range m.items {
		if it.Summary == "" {
			out[i] = it
			continue
		}
		c := *it
		c.Content = it.Summary
		out[i] = &c
	}
	return out
}

// Stats computes the current ContextWindowState.
func (m *Manager) Stats() types.ContextWindowState {
	s := types.ContextWindowState{
		TokensByType: map[types.ContextItemType]int{},
		CountByType:  map[types.ContextItemType]int{},
	}
	s.CurrentTokens = m.CurrentTokens()
	s.ItemCount = len(m.items)
	if m.cfg.MaxTokens > 0 {
		s.AvailableTokens = m.cfg.MaxTokens - s.CurrentTokens - m.cfg.ReservedForResponse
		s.UsagePercent = float64(s.CurrentTokens) / float64(m.cfg.MaxTokens)
	}
	s.IsWarning = s.UsagePercent >= m.cfg.WarningThreshold
	s.IsCritical = s.UsagePercent >= m.cfg.CriticalThreshold
	for _, it := range m.items {
		s.TokensByType[it.Type] += it.TokenCount
		s.CountByType[it.Type]++
	}
	return s
}

// CompressionResult is an alias kept local to avoid importing types twice
// where callers already hold a *types.CompressionResult by value.
type CompressionResult = types.CompressionResult

// sortByRelevanceAscending orders items lowest-relevance-first, the order
// Compress evicts in; ties break by older lastAccessedAt, then older
// createdAt, then id (R3).
func sortByRelevanceAscending(items []*types.ContextItem, scores map[string]float64) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := scores[items[i].ID], scores[items[j].ID]
		if si != sj {
			return si < sj
		}
		if !items[i].LastAccessedAt.Equal(items[j].LastAccessedAt) {
			return items[i].LastAccessedAt.Before(items[j].LastAccessedAt)
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
