package textutil

import "github.com/agnivade/levenshtein"

// Distance is the unit-cost Levenshtein edit distance between a and b.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity scores two titles after normalization. Equal normalized forms
// score exactly 1.0 (two empty titles included); otherwise the score is
// 1 - distance/longest, which is 0 when nothing lines up.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	longest := max(len(na), len(nb))
	return 1.0 - float64(Distance(na, nb))/float64(longest)
}

// Clamp01 bounds a score to [0, 1] for display.
func Clamp01(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
