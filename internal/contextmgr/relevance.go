package contextmgr

import (
	"math"
	"strings"
	"time"

	"github.com/ralphcore/ralph/internal/types"
)

// RelevanceWeights are the five factor weights; they should sum to 1.0.
type RelevanceWeights struct {
	Recency   float64
	Proximity float64
	Semantic  float64
	Frequency float64
	Type      float64
}

// DefaultRelevanceWeights matches spec.md 4.6's documented defaults.
func DefaultRelevanceWeights() RelevanceWeights {
	return RelevanceWeights{Recency: 0.25, Proximity: 0.20, Semantic: 0.25, Frequency: 0.15, Type: 0.15}
}

// RelevanceConfig parameterises the scorer beyond the weights.
type RelevanceConfig struct {
	Weights        RelevanceWeights
	RecencyHalfLife time.Duration
	CurrentFile    string
	QueryKeywords  []string
}

// DefaultRelevanceConfig uses the spec's documented 2h half-life default.
func DefaultRelevanceConfig() RelevanceConfig {
	return RelevanceConfig{Weights: DefaultRelevanceWeights(), RecencyHalfLife: 2 * time.Hour}
}

// Score computes the weighted composite relevance score for one item.
func Score(item *types.ContextItem, cfg RelevanceConfig, now time.Time) float64 {
	w := cfg.Weights
	return w.Recency*recencyFactor(item, cfg.RecencyHalfLife, now) +
		w.Proximity*proximityFactor(item, cfg.CurrentFile) +
		w.Semantic*semanticFactor(item, cfg.QueryKeywords) +
		w.Frequency*frequencyFactor(item) +
		w.Type*item.Priority.Normalized()
}

// ScoreAll scores every item and returns a stable id->score map (R3 holds
// at the caller via sortByRelevanceAscending's deterministic tie-breaks).
func ScoreAll(items []*types.ContextItem, cfg RelevanceConfig, now time.Time) map[string]float64 {
	out := make(map[string]float64, len(items))
	for _, it := range items {
		out[it.ID] = Score(it, cfg, now)
	}
	return out
}

func recencyFactor(item *types.ContextItem, halfLife time.Duration, now time.Time) float64 {
	if halfLife <= 0 {
		halfLife = 2 * time.Hour
	}
	age := now.Sub(item.LastAccessedAt)
	if age < 0 {
		age = 0
	}
	lambda := math.Ln2 / halfLife.Seconds()
	return math.Exp(-lambda * age.Seconds())
}

func proximityFactor(item *types.ContextItem, currentFile string) float64 {
	if item.SourcePath == "" || currentFile == "" {
		return 0
	}
	if item.SourcePath == currentFile {
		return 1.0
	}
	if samePathDir(item.SourcePath, currentFile) {
		return 0.9
	}
	depth := commonPrefixDepth(item.SourcePath, currentFile)
	if depth == 0 {
		return 0
	}
	// shallower common-prefix credit below the same-directory case.
	return math.Min(0.8, float64(depth)*0.2)
}

func samePathDir(a, b string) bool {
	return dirOf(a) == dirOf(b) && dirOf(a) != ""
}

func dirOf(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

func commonPrefixDepth(a, b string) int {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	depth := 0
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			break
		}
		depth++
	}
	return depth
}

func semanticFactor(item *types.ContextItem, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	contentWords := tokenize(item.EffectiveContent())
	matches := 0.0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if contentWords[kw] {
			matches++
			continue
		}
		if len(kw) >= 3 {
			for cw := range contentWords {
				if strings.Contains(cw, kw) {
					matches += 0.5
					break
				}
			}
		}
	}
	return math.Min(1.0, matches/float64(len(keywords)))
}

func frequencyFactor(item *types.ContextItem) float64 {
	v := math.Log10(float64(item.AccessCount)+1) / 2
	if v > 1 {
		v = 1
	}
	return v
}

var relevanceStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "is": true, "it": true, "for": true, "on": true,
}

func tokenize(text string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:()[]{}\"'")
		if w == "" || relevanceStopWords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

// Jaccard computes keyword-set Jaccard similarity between two texts.
func Jaccard(a, b string) float64 {
	sa, sb := tokenize(a), tokenize(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1
	}
	inter, union := 0, map[string]bool{}
	for w := range sa {
		union[w] = true
		if sb[w] {
			inter++
		}
	}
	for w := range sb {
		union[w] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

// Cosine computes keyword-vector cosine similarity (0/1 term-presence vectors).
func Cosine(a, b string) float64 {
	sa, sb := tokenize(a), tokenize(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	dot := 0
	for w := range sa {
		if sb[w] {
			dot++
		}
	}
	return float64(dot) / (math.Sqrt(float64(len(sa))) * math.Sqrt(float64(len(sb))))
}
