package domain

import "context"

// Chunk is a bounded contiguous slice of a source document's text.
// Chunks are immutable once created; (Source, Index) identifies a chunk.
type Chunk struct {
	Text   string
	Source string
	Index  int
}

// RetrievalResult is a matching chunk with its cosine similarity to the query.
type RetrievalResult struct {
	Chunk      Chunk
	Similarity float64
}

// SourceRef points a caller at the chunk an answer was grounded on.
// Excerpt is a bounded preview of the chunk text, for citation display only.
type SourceRef struct {
	Source  string `json:"source"`
	Chunk   int    `json:"chunk"`
	Excerpt string `json:"content"`
}

// Answer is the result of one query: the generated text plus the retrieved
// chunks it was grounded on, in retrieval rank order.
type Answer struct {
	Text     string      `json:"answer"`
	Question string      `json:"question"`
	Sources  []SourceRef `json:"sources"`
}

// Extractor converts a raw document file into a single text blob.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Chunker splits a text blob into chunks tagged with provenance.
type Chunker interface {
	Chunks(source, text string) []Chunk
}

// Embedder converts text into fixed-dimension numeric vectors. Both methods
// must produce vectors of the same dimensionality for a given instance.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Generator produces a text completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Index stores embedded chunks and supports k-nearest-neighbour retrieval
// by cosine similarity. Implementations establish the collection's
// dimensionality on the first Add and must reject mismatching vectors.
type Index interface {
	Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]RetrievalResult, error)
	IsEmpty(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}
