package sqlitevec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"medassist/internal/domain"
	"medassist/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
    name       TEXT PRIMARY KEY,
    dimension  INTEGER NOT NULL,
    model      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
    id          TEXT PRIMARY KEY,
    collection  TEXT NOT NULL,
    source      TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    content     TEXT NOT NULL,
    embedding   BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS chunks_collection_idx ON chunks(collection);
`

// Config describes a durable collection in a SQLite file.
type Config struct {
	// Path of the database file; created if missing.
	Path string
	// Collection name; one Store serves exactly one collection.
	Collection string
	// Model is the embedding model identifier. A collection written with a
	// different model is rejected on open so stale vectors surface early.
	Model string
}

// Store is a durable vector index backed by a SQLite file. The collection
// survives process restarts: reopening a populated database restores the
// established dimensionality without re-embedding anything. Search is a
// brute-force cosine scan, same as the in-memory store.
type Store struct {
	db         *sql.DB
	collection string
	model      string
	log        *slog.Logger

	mu        sync.RWMutex
	dimension int
}

// Open creates or opens the collection. Inserts happen in a single
// transaction per Add, so a failed ingest never leaves partial records.
func Open(cfg Config, log *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, &domain.ConfigurationError{Field: "index.sqlite.path", Reason: "must not be empty"}
	}
	if cfg.Collection == "" {
		return nil, &domain.ConfigurationError{Field: "index.sqlite.collection", Reason: "must not be empty"}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	s := &Store{db: db, collection: cfg.Collection, model: cfg.Model, log: log}

	var dim int
	var model string
	row := db.QueryRow(`SELECT dimension, model FROM collections WHERE name = ?`, cfg.Collection)
	switch err := row.Scan(&dim, &model); {
	case errors.Is(err, sql.ErrNoRows):
		// New collection; dimension is established on first Add.
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("load collection %s: %w", cfg.Collection, err)
	default:
		if cfg.Model != "" && model != cfg.Model {
			db.Close()
			return nil, &domain.ConfigurationError{
				Field:  "llm.embedding_model",
				Reason: fmt.Sprintf("collection %q was embedded with %q, configured model is %q", cfg.Collection, model, cfg.Model),
			}
		}
		s.dimension = dim
		log.Info("opened existing collection",
			slog.String("collection", cfg.Collection),
			slog.Int("dimension", dim),
			slog.String("model", model))
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if s.dimension == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections(name, dimension, model) VALUES(?, ?, ?)`,
			s.collection, dim, s.model); err != nil {
			return fmt.Errorf("register collection: %w", err)
		}
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks(id, collection, source, chunk_index, content, embedding) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, ch := range chunks {
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), s.collection, ch.Source, ch.Index, ch.Text, encodeVector(vectors[i])); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.dimension = dim
	s.log.Debug("stored embedded chunks",
		slog.String("collection", s.collection),
		slog.Int("added", len(chunks)))
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, &domain.ConfigurationError{Field: "k", Reason: fmt.Sprintf("must be positive, got %d", k)}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, &domain.DimensionMismatchError{Want: s.dimension, Got: len(vector)}
	}

	// Insertion order via rowid keeps tie-breaking deterministic.
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, chunk_index, content, embedding FROM chunks WHERE collection = ? ORDER BY rowid`,
		s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	var scores []float64
	for rows.Next() {
		var ch domain.Chunk
		var blob []byte
		if err := rows.Scan(&ch.Source, &ch.Index, &ch.Text, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
		scores = append(scores, vectorstore.Cosine(vec, vector))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idxs := vectorstore.Rank(scores, k)
	results := make([]domain.RetrievalResult, 0, len(idxs))
	for _, j := range idxs {
		results = append(results, domain.RetrievalResult{Chunk: chunks[j], Similarity: scores[j]})
	}
	return results, nil
}

func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	return n == 0, err
}

// Count reports the number of embedded chunks in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, s.collection).Scan(&n)
	return n, err
}

// Clear removes all embedded chunks and the collection's dimension record;
// a subsequent Add may establish a new dimensionality.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteAllLocked(ctx)
}

// DeleteCollection removes the collection and everything in it.
func (s *Store) DeleteCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteAllLocked(ctx); err != nil {
		return err
	}
	s.log.Info("deleted collection", slog.String("collection", s.collection))
	return nil
}

func (s *Store) deleteAllLocked(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, s.collection); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, s.collection); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.dimension = 0
	return nil
}

var _ domain.Index = (*Store)(nil)
