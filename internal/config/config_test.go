package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
		assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.ChatModel)
		assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
		assert.Equal(t, 60, cfg.LLM.TimeoutSecs)
		assert.Equal(t, "openai", cfg.Embedder.Type)
		assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
		require.NotNil(t, cfg.Chunker.Overlap)
		assert.Equal(t, 200, *cfg.Chunker.Overlap)
		assert.Equal(t, "memory", cfg.Index.Type)
		assert.Equal(t, 3, cfg.Retrieval.TopK)
		assert.Equal(t, ":8000", cfg.Server.Addr)
		assert.Equal(t, "API_SECRET_KEY", cfg.Server.SecretKeyEnv)
		assert.Equal(t, 30, cfg.Server.TokenExpiryMins)
		assert.Equal(t, 10, cfg.Server.MaxFileSizeMB)
	})

	t.Run("Values from file override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
llm:
  base_url: http://localhost:11434/v1
  chat_model: llama3
chunker:
  chunk_size: 500
  overlap: 50
index:
  type: sqlite
  sqlite:
    path: /tmp/test.db
retrieval:
  top_k: 5
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
		assert.Equal(t, "llama3", cfg.LLM.ChatModel)
		assert.Equal(t, 500, cfg.Chunker.ChunkSize)
		require.NotNil(t, cfg.Chunker.Overlap)
		assert.Equal(t, 50, *cfg.Chunker.Overlap)
		assert.Equal(t, "sqlite", cfg.Index.Type)
		require.NotNil(t, cfg.Index.SQLite)
		assert.Equal(t, "/tmp/test.db", cfg.Index.SQLite.Path)
		assert.Equal(t, "medical_docs", cfg.Index.SQLite.Collection)
		assert.Equal(t, 5, cfg.Retrieval.TopK)
		// Unset fields still get defaults.
		assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	})

	t.Run("Overlap defaults independently of chunk size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chunker:\n  chunk_size: 500\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 500, cfg.Chunker.ChunkSize)
		require.NotNil(t, cfg.Chunker.Overlap)
		assert.Equal(t, 200, *cfg.Chunker.Overlap)
	})

	t.Run("Explicit zero overlap is preserved", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chunker:\n  chunk_size: 500\n  overlap: 0\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.Chunker.Overlap)
		assert.Zero(t, *cfg.Chunker.Overlap)
	})

	t.Run("Default overlap shrinks with a small window", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chunker:\n  chunk_size: 100\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.Chunker.Overlap)
		assert.Equal(t, 20, *cfg.Chunker.Overlap)
	})

	t.Run("Sqlite index without block gets defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("index:\n  type: sqlite\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.Index.SQLite)
		assert.Equal(t, "medassist.db", cfg.Index.SQLite.Path)
		assert.Equal(t, "medical_docs", cfg.Index.SQLite.Collection)
	})

	t.Run("Invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("llm: [not a mapping"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
