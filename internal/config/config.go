package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the OpenAI-compatible embedding and chat backends.
// Point BaseURL at an Ollama server (e.g. http://localhost:11434/v1) to run
// without OpenAI; the API key is read from the named environment variable.
type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	ChatModel      string  `yaml:"chat_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSecs    int     `yaml:"timeout_secs"`
}

// EmbedderConfig selects the embedding provider implementation.
type EmbedderConfig struct {
	Type           string `yaml:"type"` // openai | local
	LocalDimension int    `yaml:"local_dimension"`
}

// ChunkerConfig configures the sliding-window splitter. Overlap is a
// pointer so an explicit zero is distinguishable from an omitted field.
type ChunkerConfig struct {
	ChunkSize int  `yaml:"chunk_size"`
	Overlap   *int `yaml:"overlap"`
}

// SQLiteIndexConfig holds the durable collection location.
type SQLiteIndexConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// IndexConfig selects the vector index backing policy.
type IndexConfig struct {
	Type   string             `yaml:"type"` // memory | sqlite
	SQLite *SQLiteIndexConfig `yaml:"sqlite,omitempty"`
}

// RetrievalConfig bounds how many chunks ground each answer.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// ServerConfig configures the HTTP collaborator.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	SecretKeyEnv    string `yaml:"secret_key_env"`
	TokenExpiryMins int    `yaml:"token_expiry_mins"`
	UploadDir       string `yaml:"upload_dir"`
	MaxFileSizeMB   int    `yaml:"max_file_size_mb"`
	DemoUsername    string `yaml:"demo_username"`
	DemoPassword    string `yaml:"demo_password"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Server    ServerConfig    `yaml:"server"`
}

// Load reads a config from the given path. If the file does not exist,
// defaults are returned.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.ChatModel == "" {
		cfg.LLM.ChatModel = "gpt-3.5-turbo"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.LocalDimension == 0 {
		cfg.Embedder.LocalDimension = 256
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.Overlap == nil {
		overlap := 200
		if overlap >= cfg.Chunker.ChunkSize {
			// Keep the default ratio when the window is smaller than 200.
			overlap = cfg.Chunker.ChunkSize / 5
		}
		cfg.Chunker.Overlap = &overlap
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Index.Type == "sqlite" && cfg.Index.SQLite == nil {
		cfg.Index.SQLite = &SQLiteIndexConfig{}
	}
	if cfg.Index.SQLite != nil {
		if cfg.Index.SQLite.Path == "" {
			cfg.Index.SQLite.Path = "medassist.db"
		}
		if cfg.Index.SQLite.Collection == "" {
			cfg.Index.SQLite.Collection = "medical_docs"
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.SecretKeyEnv == "" {
		cfg.Server.SecretKeyEnv = "API_SECRET_KEY"
	}
	if cfg.Server.TokenExpiryMins == 0 {
		cfg.Server.TokenExpiryMins = 30
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploads"
	}
	if cfg.Server.MaxFileSizeMB == 0 {
		cfg.Server.MaxFileSizeMB = 10
	}
	if cfg.Server.DemoUsername == "" {
		cfg.Server.DemoUsername = "medical_researcher"
	}
	if cfg.Server.DemoPassword == "" {
		cfg.Server.DemoPassword = "demo_password_123"
	}
}
