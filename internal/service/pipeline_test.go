package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/internal/chunker"
	"medassist/internal/domain"
	"medassist/internal/embedding"
	"medassist/internal/extract"
	"medassist/internal/vectorstore/memory"
)

type fakeSynth struct {
	retrieved []domain.RetrievalResult
	calls     int
}

func (f *fakeSynth) Answer(ctx context.Context, question string, retrieved []domain.RetrievalResult) (domain.Answer, error) {
	f.calls++
	f.retrieved = retrieved
	if len(retrieved) == 0 {
		return domain.Answer{}, domain.ErrNotReady
	}
	sources := make([]domain.SourceRef, len(retrieved))
	for i, r := range retrieved {
		sources[i] = domain.SourceRef{Source: r.Chunk.Source, Chunk: r.Chunk.Index, Excerpt: r.Chunk.Text}
	}
	return domain.Answer{Text: "synthesized", Question: question, Sources: sources}, nil
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, &domain.RemoteError{Backend: "embeddings", Err: errors.New("connection refused")}
}

func (failingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, &domain.RemoteError{Backend: "embeddings", Err: errors.New("connection refused")}
}

func (failingEmbedder) Model() string { return "failing" }

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestPipeline(t *testing.T, synth Synthesizer) (*Pipeline, *memory.Store) {
	t.Helper()
	split, err := chunker.NewSplitter(1000, 200)
	require.NoError(t, err)
	emb, err := embedding.NewLocalEmbedder(256)
	require.NoError(t, err)
	store := memory.NewStore()
	p, err := New(context.Background(), extract.NewFileExtractor(nil), split, emb, store, synth, 3, nil)
	require.NoError(t, err)
	return p, store
}

func TestNew(t *testing.T) {
	t.Run("Non-positive top k", func(t *testing.T) {
		split, err := chunker.NewSplitter(1000, 200)
		require.NoError(t, err)
		emb, err := embedding.NewLocalEmbedder(16)
		require.NoError(t, err)
		_, err = New(context.Background(), extract.NewFileExtractor(nil), split, emb, memory.NewStore(), &fakeSynth{}, 0, nil)
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("Populated index starts ready", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.Add(context.Background(),
			[]domain.Chunk{{Text: "prior", Source: "old.txt", Index: 0}}, [][]float32{{1, 0}}))
		split, err := chunker.NewSplitter(1000, 200)
		require.NoError(t, err)
		emb, err := embedding.NewLocalEmbedder(16)
		require.NoError(t, err)
		p, err := New(context.Background(), extract.NewFileExtractor(nil), split, emb, store, &fakeSynth{}, 3, nil)
		require.NoError(t, err)
		assert.True(t, p.Ready())
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("Document becomes searchable", func(t *testing.T) {
		p, store := newTestPipeline(t, &fakeSynth{})
		path := writeDoc(t, t.TempDir(), "notes.txt", "aspirin 81mg daily for cardiovascular health")

		assert.False(t, p.Ready())
		n, err := p.Ingest(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.True(t, p.Ready())

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Chunk count follows the window", func(t *testing.T) {
		p, _ := newTestPipeline(t, &fakeSynth{})
		// 1601 runes with a 1000/200 window is 3 chunks.
		path := writeDoc(t, t.TempDir(), "long.txt", strings.Repeat("a", 1601))
		n, err := p.Ingest(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("Empty document is rejected", func(t *testing.T) {
		p, store := newTestPipeline(t, &fakeSynth{})
		path := writeDoc(t, t.TempDir(), "empty.txt", "")
		_, err := p.Ingest(ctx, path)
		var extractionErr *domain.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		assert.Equal(t, "empty.txt", extractionErr.Source)
		assert.False(t, p.Ready())

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Failed embedding leaves index unchanged", func(t *testing.T) {
		split, err := chunker.NewSplitter(1000, 200)
		require.NoError(t, err)
		store := memory.NewStore()
		p, err := New(ctx, extract.NewFileExtractor(nil), split, failingEmbedder{}, store, &fakeSynth{}, 3, nil)
		require.NoError(t, err)

		path := writeDoc(t, t.TempDir(), "doc.txt", "some clinical text")
		_, err = p.Ingest(ctx, path)
		var remoteErr *domain.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.False(t, p.Ready())

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Missing file", func(t *testing.T) {
		p, _ := newTestPipeline(t, &fakeSynth{})
		_, err := p.Ingest(ctx, filepath.Join(t.TempDir(), "absent.txt"))
		var extractionErr *domain.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
	})
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("Not ready before first ingest", func(t *testing.T) {
		synth := &fakeSynth{}
		split, err := chunker.NewSplitter(1000, 200)
		require.NoError(t, err)
		// A failing embedder proves the backend is never touched.
		p, err := New(ctx, extract.NewFileExtractor(nil), split, failingEmbedder{}, memory.NewStore(), synth, 3, nil)
		require.NoError(t, err)

		_, err = p.Answer(ctx, "What medications are mentioned?")
		require.ErrorIs(t, err, domain.ErrNotReady)
		assert.Zero(t, synth.calls)
	})

	t.Run("Retrieves the most relevant chunks", func(t *testing.T) {
		synth := &fakeSynth{}
		p, _ := newTestPipeline(t, synth)
		dir := t.TempDir()

		_, err := p.Ingest(ctx, writeDoc(t, dir, "aspirin.txt", "aspirin 81mg is a medication prescribed for heart patients"))
		require.NoError(t, err)
		_, err = p.Ingest(ctx, writeDoc(t, dir, "ibuprofen.txt", "ibuprofen 200mg is a medication for pain and inflammation"))
		require.NoError(t, err)
		_, err = p.Ingest(ctx, writeDoc(t, dir, "diet.txt", "unrelated text about a balanced diet with vegetables"))
		require.NoError(t, err)

		ans, err := p.Answer(ctx, "which medication is mentioned")
		require.NoError(t, err)
		assert.Equal(t, "synthesized", ans.Text)
		require.Len(t, synth.retrieved, 3)
		// Both medication documents outrank the unrelated one.
		assert.ElementsMatch(t,
			[]string{"aspirin.txt", "ibuprofen.txt"},
			[]string{synth.retrieved[0].Chunk.Source, synth.retrieved[1].Chunk.Source})
		assert.Equal(t, "diet.txt", synth.retrieved[2].Chunk.Source)
		assert.GreaterOrEqual(t, synth.retrieved[0].Similarity, synth.retrieved[1].Similarity)
		assert.GreaterOrEqual(t, synth.retrieved[1].Similarity, synth.retrieved[2].Similarity)
	})

	t.Run("Search returns ranked chunks without synthesis", func(t *testing.T) {
		synth := &fakeSynth{}
		p, _ := newTestPipeline(t, synth)
		dir := t.TempDir()

		_, err := p.Ingest(ctx, writeDoc(t, dir, "aspirin.txt", "aspirin 81mg for heart patients"))
		require.NoError(t, err)
		_, err = p.Ingest(ctx, writeDoc(t, dir, "diet.txt", "vegetables and whole grains"))
		require.NoError(t, err)

		results, err := p.Search(ctx, "aspirin for heart patients", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "aspirin.txt", results[0].Chunk.Source)
		assert.Zero(t, synth.calls)

		// Non-positive k falls back to the configured top-k.
		results, err = p.Search(ctx, "aspirin", 0)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("Search before first ingest", func(t *testing.T) {
		p, _ := newTestPipeline(t, &fakeSynth{})
		_, err := p.Search(ctx, "anything", 3)
		require.ErrorIs(t, err, domain.ErrNotReady)
	})

	t.Run("Top k bounds the retrieval set", func(t *testing.T) {
		synth := &fakeSynth{}
		split, err := chunker.NewSplitter(1000, 200)
		require.NoError(t, err)
		emb, err := embedding.NewLocalEmbedder(256)
		require.NoError(t, err)
		p, err := New(ctx, extract.NewFileExtractor(nil), split, emb, memory.NewStore(), synth, 2, nil)
		require.NoError(t, err)

		dir := t.TempDir()
		for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
			_, err := p.Ingest(ctx, writeDoc(t, dir, name, "content of "+name))
			require.NoError(t, err)
		}

		_, err = p.Answer(ctx, "content")
		require.NoError(t, err)
		assert.Len(t, synth.retrieved, 2)
	})
}
