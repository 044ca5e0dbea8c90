package contextmgr

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ralphcore/ralph/internal/types"
)

func TestCurrentTokensMatchesSum(t *testing.T) {
	m := New(types.DefaultContextManagerConfig(), nil)
	m.Add(&types.ContextItem{Content: "hello world", CanRemove: true})
	m.Add(&types.ContextItem{Content: "a second item here", CanRemove: true})

	sum := 0
	for _, it := range m.GetWindow() {
		sum += it.TokenCount
	}
	if m.CurrentTokens() != sum {
		t.Errorf("CurrentTokens() = %d, want sum of item token counts %d", m.CurrentTokens(), sum)
	}
}

func TestCriticalItemsNeverRemoved(t *testing.T) {
	cfg := types.DefaultContextManagerConfig()
	cfg.MinItemsToKeep = 0
	m := New(cfg, nil)
	m.Add(&types.ContextItem{ID: "crit", Content: "must stay", Priority: types.PriorityCritical, CanRemove: true})
	m.Add(&types.ContextItem{ID: "low", Content: "can go", Priority: types.PriorityLow, CanRemove: true})

	m.Compress(0)

	found := false
	for _, it := range m.GetWindow() {
		if it.ID == "crit" {
			found = true
		}
	}
	if !found {
		t.Fatal("CRITICAL item was removed during compression")
	}
}

func TestCompressionNoOpWhenAlreadyUnderTarget(t *testing.T) {
	m := New(types.DefaultContextManagerConfig(), nil)
	m.Add(&types.ContextItem{Content: "small", CanRemove: true})
	result := m.Compress(10_000)
	if result.CompressionRatio != 1 {
		t.Errorf("expected no-op compression ratio 1, got %v", result.CompressionRatio)
	}
	if result.RemovedCount != 0 || result.SummarizedCount != 0 {
		t.Errorf("expected no items touched, got %+v", result)
	}
}

func TestScenarioS6ContextCompression(t *testing.T) {
	cfg := types.ContextManagerConfig{
		MaxTokens:           1000,
		ReservedForResponse: 100,
		CriticalThreshold:   0.9,
		AutoCompress:        false, // drive Compress explicitly so the scenario's token counts are exact
		CompressionTarget:   0.5,
		MinItemsToKeep:      1,
	}
	// A counter keyed off fixed markers, so the arithmetic below is exact
	// regardless of how defaultSummarizer truncates its body text.
	counter := func(s string) int {
		switch {
		case strings.Contains(s, "summary"):
			return 30
		case strings.HasPrefix(s, "BIG"):
			return 400
		case strings.HasPrefix(s, "LOW"):
			return 150
		default:
			return len(s)
		}
	}
	m := New(cfg, counter)

	m.Add(&types.ContextItem{Content: "BIG pinned instructions", Priority: types.PriorityHigh, CanRemove: false, CanSummarize: false})
	for i := 0; i < 3; i++ {
		m.Add(&types.ContextItem{Content: "LOW stale tool output", Priority: types.PriorityLow, CanSummarize: true, CanRemove: true})
	}
	const before = 400 + 3*150
	if got := m.CurrentTokens(); got != before {
		t.Fatalf("setup: expected %d tokens before compression, got %d", before, got)
	}

	result := m.Compress(500)
	if result.SummarizedCount != 3 {
		t.Errorf("expected all 3 LOW items summarised, got %d", result.SummarizedCount)
	}
	if result.RemovedCount != 0 {
		t.Errorf("expected no removals once summarisation hit the target, got %d", result.RemovedCount)
	}
	const wantAfter = 400 + 3*30
	if got := m.CurrentTokens(); got != wantAfter {
		t.Errorf("expected %d tokens after compression, got %d", wantAfter, got)
	}
	if result.NewTokenCount != wantAfter {
		t.Errorf("NewTokenCount = %d, want %d", result.NewTokenCount, wantAfter)
	}
}

func TestUpdateAccessIncrementsAccessCount(t *testing.T) {
	m := New(types.DefaultContextManagerConfig(), nil)
	m.Add(&types.ContextItem{ID: "x", Content: "a"})
	m.UpdateAccess("x")
	m.UpdateAccess("x")
	for _, it := range m.GetWindow() {
		if it.ID == "x" && it.AccessCount != 2 {
			t.Errorf("expected access count 2, got %d", it.AccessCount)
		}
	}
}

func TestSaveAndRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "context.json")

	m := New(types.DefaultContextManagerConfig(), nil)
	m.Add(&types.ContextItem{Content: "persisted item"})

	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := New(types.ContextManagerConfig{}, nil)
	if err := restored.Restore(path); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(restored.GetWindow()) != 1 {
		t.Fatalf("expected 1 restored item, got %d", len(restored.GetWindow()))
	}
}
