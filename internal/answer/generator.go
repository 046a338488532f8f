package answer

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"medassist/internal/domain"
)

// GeneratorConfig configures the chat-completion client. BaseURL may point
// at an Ollama endpoint with an OpenAI-compatible API.
type GeneratorConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OpenAIGenerator answers a single prompt with one chat-completion
// round-trip. No conversation state is kept between calls.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIGenerator(cfg GeneratorConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigurationError{Field: "llm.api_key_env", Reason: "API key is not set"}
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &domain.RemoteError{Backend: "chat", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.RemoteError{Backend: "chat", Err: errors.New("no completion returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

var _ domain.Generator = (*OpenAIGenerator)(nil)
