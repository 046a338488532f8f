package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"medassist/internal/answer"
	"medassist/internal/chunker"
	"medassist/internal/config"
	"medassist/internal/domain"
	"medassist/internal/embedding"
	"medassist/internal/extract"
	"medassist/internal/service"
	"medassist/internal/vectorstore/memory"
	"medassist/internal/vectorstore/sqlitevec"
)

// BuildPipeline assembles the document pipeline from configuration. All
// binaries share this wiring so the embedder, index and chunker selection
// cannot drift between entry points.
func BuildPipeline(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*service.Pipeline, error) {
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" && cfg.LLM.BaseURL != "" {
		// Ollama requires a key header but ignores its value.
		apiKey = "ollama"
	}
	timeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		var err error
		emb, err = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  apiKey,
			Model:   cfg.LLM.EmbeddingModel,
			Timeout: timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
	case "local":
		var err error
		emb, err = embedding.NewLocalEmbedder(cfg.Embedder.LocalDimension)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown embedder type: %s", cfg.Embedder.Type)
	}

	overlap := 0
	if cfg.Chunker.Overlap != nil {
		overlap = *cfg.Chunker.Overlap
	}
	splitter, err := chunker.NewSplitter(cfg.Chunker.ChunkSize, overlap)
	if err != nil {
		return nil, err
	}

	var index domain.Index
	switch cfg.Index.Type {
	case "memory", "":
		index = memory.NewStore()
	case "sqlite":
		store, err := sqlitevec.Open(sqlitevec.Config{
			Path:       cfg.Index.SQLite.Path,
			Collection: cfg.Index.SQLite.Collection,
			Model:      emb.Model(),
		}, logger)
		if err != nil {
			return nil, err
		}
		index = store
	default:
		return nil, fmt.Errorf("unknown index type: %s", cfg.Index.Type)
	}

	gen, err := answer.NewOpenAIGenerator(answer.GeneratorConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.LLM.ChatModel,
		Temperature: cfg.LLM.Temperature,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, err
	}
	synth := answer.NewSynthesizer(gen, logger)

	return service.New(ctx, extract.NewFileExtractor(logger), splitter, emb, index, synth, cfg.Retrieval.TopK, logger)
}
