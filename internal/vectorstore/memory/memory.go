package memory

import (
	"context"
	"fmt"
	"sync"

	"medassist/internal/domain"
	"medassist/internal/vectorstore"
)

// Store is an in-memory vector index using brute-force cosine similarity.
// The collection is lost when the process exits. Writes are exclusive,
// searches proceed concurrently; a chunk and its vector are appended under
// the same lock so readers never see one without the other.
type Store struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float32
}

func NewStore() *Store { return &Store{} }

// Add appends embedded chunks to the collection. The first Add establishes
// the collection's dimensionality; every vector is validated before any
// mutation, so a mismatch leaves the collection unchanged.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("cannot establish collection dimension from an empty vector")
		}
	}
	for _, v := range vectors {
		if len(v) != dim {
			return &domain.DimensionMismatchError{Want: dim, Got: len(v)}
		}
	}
	s.dimension = dim
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search scans every stored vector and returns the min(k, size) most
// similar chunks in descending similarity, ties resolved to the
// earlier-inserted chunk.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, &domain.ConfigurationError{Field: "k", Reason: fmt.Sprintf("must be positive, got %d", k)}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, &domain.DimensionMismatchError{Want: s.dimension, Got: len(vector)}
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = vectorstore.Cosine(s.vectors[i], vector)
	}
	idxs := vectorstore.Rank(scores, k)
	results := make([]domain.RetrievalResult, 0, len(idxs))
	for _, j := range idxs {
		results = append(results, domain.RetrievalResult{Chunk: s.chunks[j], Similarity: scores[j]})
	}
	return results, nil
}

func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks) == 0, nil
}

// Count reports the number of embedded chunks in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Clear removes all embedded chunks; a subsequent Add may establish a new
// dimensionality.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = 0
	s.chunks = nil
	s.vectors = nil
	return nil
}

var _ domain.Index = (*Store)(nil)
