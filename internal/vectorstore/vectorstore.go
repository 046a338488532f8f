package vectorstore

import (
	"math"
	"sort"
)

// Cosine computes the cosine similarity of two vectors in float64 to keep
// the ranking stable on large dimensions. A zero-norm vector yields 0, not
// NaN, so the result ordering stays total.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank returns the indices of the k highest scores in descending order.
// The sort is stable, so equal scores keep their insertion order.
func Rank(scores []float64, k int) []int {
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return scores[idxs[i]] > scores[idxs[j]]
	})
	if k < len(idxs) {
		idxs = idxs[:k]
	}
	return idxs
}
