package similarity

import "github.com/agext/levenshtein"

// jaccard computes set Jaccard similarity. Two empty sets are identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// multisetJaccard computes Jaccard over multisets: intersection sums the
// minimum count per key, union the maximum.
func multisetJaccard(a, b map[string]int) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter, union := 0, 0
	for k, ca := range a {
		cb := b[k]
		inter += min(ca, cb)
		union += max(ca, cb)
	}
	for k, cb := range b {
		if _, ok := a[k]; !ok {
			union += cb
		}
	}
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

// textSimilarity is a normalized edit-distance ratio in [0,1].
func textSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, nil)
}
