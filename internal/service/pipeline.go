package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"medassist/internal/domain"
)

// Synthesizer composes retrieved chunks into a grounded answer.
type Synthesizer interface {
	Answer(ctx context.Context, question string, retrieved []domain.RetrievalResult) (domain.Answer, error)
}

// Pipeline wires extractor, chunker, embedder, index and synthesizer into
// the two operations the collaborators call: Ingest and Answer. It owns the
// index lifecycle across ingests and tracks whether any document has been
// indexed yet.
type Pipeline struct {
	extractor domain.Extractor
	chunker   domain.Chunker
	embedder  domain.Embedder
	index     domain.Index
	synth     Synthesizer
	topK      int
	log       *slog.Logger

	mu    sync.Mutex
	ready bool
}

// New assembles the pipeline. If the index already holds embedded chunks
// (a reopened persistent collection), the pipeline starts ready and prior
// documents are not re-embedded.
func New(ctx context.Context, extractor domain.Extractor, chunker domain.Chunker, embedder domain.Embedder, index domain.Index, synth Synthesizer, topK int, log *slog.Logger) (*Pipeline, error) {
	if topK <= 0 {
		return nil, &domain.ConfigurationError{Field: "retrieval.top_k", Reason: "must be positive"}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	empty, err := index.IsEmpty(ctx)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		synth:     synth,
		topK:      topK,
		log:       log,
		ready:     !empty,
	}, nil
}

// Ready reports whether at least one document is indexed.
func (p *Pipeline) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Ingest extracts, chunks, embeds and indexes one document and returns the
// number of chunks created. The operation is atomic: if extraction,
// embedding or indexing fails, no chunk of the document is registered and
// the readiness state is unchanged.
func (p *Pipeline) Ingest(ctx context.Context, path string) (int, error) {
	source := filepath.Base(path)
	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return 0, err
	}
	chunks := p.chunker.Chunks(source, text)
	if len(chunks) == 0 {
		return 0, &domain.ExtractionError{Source: source, Err: errors.New("document contains no text")}
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}
	if err := p.index.Add(ctx, chunks, vectors); err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.ready = true
	p.mu.Unlock()

	p.log.Info("ingested document",
		slog.String("source", source),
		slog.Int("chunks", len(chunks)),
		slog.String("model", p.embedder.Model()))
	return len(chunks), nil
}

// Search embeds the query and returns the k most similar chunks without
// invoking the generative backend. k <= 0 falls back to the configured
// top-k. Before the first successful ingest it fails with
// domain.ErrNotReady without touching the embedding backend.
func (p *Pipeline) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if !p.Ready() {
		return nil, domain.ErrNotReady
	}
	if k <= 0 {
		k = p.topK
	}
	vector, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return p.index.Search(ctx, vector, k)
}

// Answer retrieves the top-k chunks for the question and synthesizes a
// grounded answer.
func (p *Pipeline) Answer(ctx context.Context, question string) (domain.Answer, error) {
	retrieved, err := p.Search(ctx, question, p.topK)
	if err != nil {
		return domain.Answer{}, err
	}
	return p.synth.Answer(ctx, question, retrieved)
}
