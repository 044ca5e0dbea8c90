package types

import "time"

// ContextItem is one entry in a Context Manager's token-budgeted window.
type ContextItem struct {
	ID             string          `json:"id"`
	Type           ContextItemType `json:"type"`
	Content        string          `json:"content"`
	Priority       ItemPriority    `json:"priority"`
	TokenCount     int             `json:"tokenCount"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastAccessedAt time.Time       `json:"lastAccessedAt"`
	AccessCount    int             `json:"accessCount"`
	SourcePath     string          `json:"sourcePath,omitempty"`
	CanSummarize   bool            `json:"canSummarize"`
	CanRemove      bool            `json:"canRemove"`
	Summary        string          `json:"summary,omitempty"`
}

// EffectiveContent returns the summary if one has been set, else the content.
func (c *ContextItem) EffectiveContent() string {
	if c.Summary != "" {
		return c.Summary
	}
	return c.Content
}

// ContextWindowState is a point-in-time snapshot of token usage.
type ContextWindowState struct {
	CurrentTokens    int                     `json:"currentTokens"`
	AvailableTokens  int                     `json:"availableTokens"`
	UsagePercent     float64                 `json:"usagePercent"`
	ItemCount        int                     `json:"itemCount"`
	IsWarning        bool                    `json:"isWarning"`
	IsCritical       bool                    `json:"isCritical"`
	TokensByType     map[ContextItemType]int `json:"tokensByType"`
	CountByType      map[ContextItemType]int `json:"countByType"`
}

// ContextManagerConfig bounds a Context Manager instance.
type ContextManagerConfig struct {
	MaxTokens           int     `json:"maxTokens"`
	ReservedForResponse int     `json:"reservedForResponse"`
	WarningThreshold    float64 `json:"warningThreshold"`  // usagePercent
	CriticalThreshold   float64 `json:"criticalThreshold"` // usagePercent
	AutoCompress        bool    `json:"autoCompress"`
	CompressionTarget   float64 `json:"compressionTarget"` // fraction of maxTokens
	MinItemsToKeep      int     `json:"minItemsToKeep"`
	PersistenceEnabled  bool    `json:"persistenceEnabled"`
	PersistencePath     string  `json:"persistencePath,omitempty"`
	Model               string  `json:"model,omitempty"`
}

// DefaultContextManagerConfig returns the same context defaults that the
// generated workspace config.yaml writes.
func DefaultContextManagerConfig() ContextManagerConfig {
	return ContextManagerConfig{
		MaxTokens:           8000,
		ReservedForResponse: 500,
		WarningThreshold:    0.75,
		CriticalThreshold:   0.9,
		AutoCompress:        true,
		CompressionTarget:   0.5,
		MinItemsToKeep:      3,
	}
}

// CompressionResult reports the outcome of one compression pass.
type CompressionResult struct {
	RemovedCount     int     `json:"removedCount"`
	SummarizedCount  int     `json:"summarizedCount"`
	TokensSaved      int     `json:"tokensSaved"`
	NewTokenCount    int     `json:"newTokenCount"`
	CompressionRatio float64 `json:"compressionRatio"`
}

// ContextSnapshot is the C6c persistence document.
type ContextSnapshot struct {
	Version int                  `json:"version"`
	Items   []*ContextItem       `json:"items"`
	Config  ContextManagerConfig `json:"config"`
	Stats   ContextWindowState   `json:"stats"`
}
