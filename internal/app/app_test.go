package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/internal/config"
)

func localConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Embedder.Type = "local"
	return cfg
}

func TestBuildPipeline(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("Local embedder with memory index", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "test-key")
		p, err := BuildPipeline(ctx, localConfig(t), logger)
		require.NoError(t, err)
		assert.False(t, p.Ready())
	})

	t.Run("Sqlite index", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "test-key")
		cfg := localConfig(t)
		cfg.Index.Type = "sqlite"
		cfg.Index.SQLite = &config.SQLiteIndexConfig{
			Path:       filepath.Join(t.TempDir(), "index.db"),
			Collection: "medical_docs",
		}
		p, err := BuildPipeline(ctx, cfg, logger)
		require.NoError(t, err)
		assert.False(t, p.Ready())
	})

	t.Run("Unknown embedder type", func(t *testing.T) {
		cfg := localConfig(t)
		cfg.Embedder.Type = "quantum"
		_, err := BuildPipeline(ctx, cfg, logger)
		assert.Error(t, err)
	})

	t.Run("Unknown index type", func(t *testing.T) {
		cfg := localConfig(t)
		cfg.Index.Type = "redis"
		_, err := BuildPipeline(ctx, cfg, logger)
		assert.Error(t, err)
	})

	t.Run("Missing API key for remote embedder", func(t *testing.T) {
		cfg := localConfig(t)
		cfg.Embedder.Type = "openai"
		cfg.LLM.APIKeyEnv = "MEDASSIST_TEST_ABSENT_KEY"
		_, err := BuildPipeline(ctx, cfg, logger)
		assert.Error(t, err)
	})
}
