package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	t.Run("Identical vectors", func(t *testing.T) {
		v := []float32{0.3, 0.5, 0.2}
		assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
	})

	t.Run("Orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("Opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, Cosine([]float32{1, 2, 3}, []float32{-1, -2, -3}), 1e-9)
	})

	t.Run("Scale invariant", func(t *testing.T) {
		a := []float32{0.1, 0.7, 0.3}
		b := []float32{1, 7, 3}
		assert.InDelta(t, 1.0, Cosine(a, b), 1e-6)
	})

	t.Run("Zero vector yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine([]float32{0, 0, 0}, []float32{1, 2, 3}))
		assert.Equal(t, 0.0, Cosine([]float32{1, 2, 3}, []float32{0, 0, 0}))
	})

	t.Run("Empty vectors yield zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine(nil, nil))
	})
}

func TestRank(t *testing.T) {
	t.Run("Descending order", func(t *testing.T) {
		assert.Equal(t, []int{2, 0, 1}, Rank([]float64{0.5, 0.1, 0.9}, 3))
	})

	t.Run("Truncates to k", func(t *testing.T) {
		assert.Equal(t, []int{2, 0}, Rank([]float64{0.5, 0.1, 0.9}, 2))
	})

	t.Run("K larger than input", func(t *testing.T) {
		assert.Equal(t, []int{0, 1}, Rank([]float64{0.9, 0.1}, 10))
	})

	t.Run("Ties keep insertion order", func(t *testing.T) {
		assert.Equal(t, []int{1, 0, 2, 3}, Rank([]float64{0.5, 0.7, 0.5, 0.5}, 4))
	})

	t.Run("Empty scores", func(t *testing.T) {
		assert.Empty(t, Rank(nil, 5))
	})
}
