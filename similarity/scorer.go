// Package similarity scores fingerprint pairs on a bounded [0,1] scale.
//
// The composite score is a fixed weighted sum over five dimensions, with
// semantic identity dominating: a screen that keeps its accessibility
// structure is the same screen, even when its URL or styling moved.
// Every sub-metric is symmetric (Jaccard, edit-distance ratio, equality),
// so Score(a,b) == Score(b,a) for all inputs.
package similarity

import (
	"fmt"
	"math"

	"github.com/hazyhaar/uimap/fingerprint"
)

// DefaultThreshold is the minimum composite score for two fingerprints to
// be treated as the same state. Threshold comparisons are inclusive.
const DefaultThreshold = 0.80

// Weights distributes the composite score across dimensions.
// They must sum to exactly 1.0.
type Weights struct {
	Semantic   float64 `yaml:"semantic" json:"semantic"`
	Functional float64 `yaml:"functional" json:"functional"`
	Structural float64 `yaml:"structural" json:"structural"`
	Content    float64 `yaml:"content" json:"content"`
	Style      float64 `yaml:"style" json:"style"`
}

// DefaultWeights is the resilience hierarchy: semantic 60%, functional
// 25%, structural 10%, content 4%, style 1%.
func DefaultWeights() Weights {
	return Weights{
		Semantic:   0.60,
		Functional: 0.25,
		Structural: 0.10,
		Content:    0.04,
		Style:      0.01,
	}
}

func (w Weights) sum() float64 {
	return w.Semantic + w.Functional + w.Structural + w.Content + w.Style
}

// Scorer computes weighted fingerprint similarity.
type Scorer struct {
	w Weights
}

// New creates a Scorer. The weights must sum to 1.0; a zero Weights value
// selects the defaults.
func New(w Weights) (*Scorer, error) {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	if math.Abs(w.sum()-1.0) > 1e-9 {
		return nil, fmt.Errorf("similarity: weights sum to %v, want 1.0", w.sum())
	}
	return &Scorer{w: w}, nil
}

// MustNew is New for static weight sets.
func MustNew(w Weights) *Scorer {
	s, err := New(w)
	if err != nil {
		panic(err)
	}
	return s
}

// Score returns the composite similarity of two fingerprints in [0,1].
func (s *Scorer) Score(a, b fingerprint.Fingerprint) float64 {
	score := s.w.Semantic*semanticScore(a.Semantic, b.Semantic) +
		s.w.Functional*functionalScore(a.Functional, b.Functional) +
		s.w.Structural*structuralScore(a.URLPattern, b.URLPattern) +
		s.w.Content*contentScore(a, b) +
		s.w.Style*styleScore(a.StyleHash, b.StyleHash)
	// Clamp float drift at the boundaries.
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// IsMatch reports whether the pair scores at or above the threshold.
func (s *Scorer) IsMatch(a, b fingerprint.Fingerprint, threshold float64) bool {
	return s.Score(a, b) >= threshold
}

// semanticScore: Jaccard over the union of landmark roles, the ordered
// heading sequence, and ARIA state entries, plus a bonus when the tree
// topology hashes agree.
func semanticScore(a, b fingerprint.Semantic) float64 {
	base := jaccard(semanticItems(a), semanticItems(b))
	bonus := 0.0
	if a.StructureHash == b.StructureHash {
		bonus = 1.0
	}
	return 0.85*base + 0.15*bonus
}

func semanticItems(s fingerprint.Semantic) map[string]struct{} {
	items := map[string]struct{}{}
	for _, l := range s.Landmarks {
		items["landmark:"+l] = struct{}{}
	}
	// Headings carry their position: a reordered outline is a different
	// screen even with identical text.
	for i, h := range s.Headings {
		items[fmt.Sprintf("heading:%d:%s", i, h)] = struct{}{}
	}
	for k, v := range s.AriaStates {
		items[fmt.Sprintf("aria:%s=%t", k, v)] = struct{}{}
	}
	return items
}

// functionalScore: multiset Jaccard over (role, accessible name)
// signatures of all actionable elements.
func functionalScore(a, b fingerprint.Functional) float64 {
	return multisetJaccard(signatures(a), signatures(b))
}

func signatures(f fingerprint.Functional) map[string]int {
	sigs := map[string]int{}
	for _, e := range f.Elements() {
		sigs[e.Role+"|"+e.Name]++
	}
	return sigs
}

// structuralScore: exact pattern match or edit-distance ratio.
func structuralScore(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return textSimilarity(a, b)
}

// contentScore compares title concatenated with the primary heading.
func contentScore(a, b fingerprint.Fingerprint) float64 {
	ca := a.Title + "\n" + a.MainHeading
	cb := b.Title + "\n" + b.MainHeading
	if ca == cb {
		return 1
	}
	return textSimilarity(ca, cb)
}

// styleScore: hash equality only. Two missing hashes count as equal.
func styleScore(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
}
