package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"medassist/internal/domain"
)

// OpenAIConfig configures the remote embedding client. Setting BaseURL to
// an Ollama endpoint (e.g. http://localhost:11434/v1) makes the same client
// work against its OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIEmbedder generates embeddings through an OpenAI-compatible service.
// Failures are surfaced as domain.RemoteError; nothing is retried here.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

func NewOpenAIEmbedder(cfg OpenAIConfig, log *slog.Logger) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigurationError{Field: "llm.api_key_env", Reason: "API key is not set"}
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cc),
		model:  cfg.Model,
		log:    log,
	}, nil
}

func (e *OpenAIEmbedder) Model() string { return e.model }

// EmbedBatch embeds every text in order. Identical texts within one call
// are sent to the backend once and share the identical vector.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var unique []string
	position := make(map[string]int, len(texts))
	for _, t := range texts {
		if _, seen := position[t]; !seen {
			position[t] = len(unique)
			unique = append(unique, t)
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: unique,
	})
	if err != nil {
		return nil, &domain.RemoteError{Backend: "embeddings", Err: err}
	}
	if len(resp.Data) != len(unique) {
		return nil, &domain.RemoteError{
			Backend: "embeddings",
			Err:     fmt.Errorf("requested %d embeddings, got %d", len(unique), len(resp.Data)),
		}
	}
	dim := len(resp.Data[0].Embedding)
	for _, d := range resp.Data {
		if len(d.Embedding) != dim || dim == 0 {
			return nil, &domain.RemoteError{
				Backend: "embeddings",
				Err:     errors.New("backend returned vectors of inconsistent dimensionality"),
			}
		}
	}

	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = resp.Data[position[t]].Embedding
	}
	e.log.Debug("embedded batch",
		slog.Int("texts", len(texts)),
		slog.Int("unique", len(unique)),
		slog.Int("dimension", dim))
	return vectors, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

var _ domain.Embedder = (*OpenAIEmbedder)(nil)
