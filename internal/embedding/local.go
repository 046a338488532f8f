package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"medassist/internal/domain"
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// LocalEmbedder is a deterministic, offline hashed bag-of-words embedder:
// each token is hashed onto one of dim axes and counts are L2-normalised.
// It captures lexical overlap only, which is enough for air-gapped
// deployments and hermetic tests; text with no tokens maps to the zero
// vector.
type LocalEmbedder struct {
	dim int
}

func NewLocalEmbedder(dim int) (*LocalEmbedder, error) {
	if dim <= 0 {
		return nil, &domain.ConfigurationError{
			Field:  "embedder.local_dimension",
			Reason: fmt.Sprintf("must be positive, got %d", dim),
		}
	}
	return &LocalEmbedder{dim: dim}, nil
}

func (e *LocalEmbedder) Model() string { return fmt.Sprintf("local-hash-%d", e.dim) }

func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = e.embed(t)
	}
	return vectors, nil
}

func (e *LocalEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *LocalEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range wordRe.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32())%e.dim]++
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

var _ domain.Embedder = (*LocalEmbedder)(nil)
