package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"medassist/internal/app"
	"medassist/internal/config"
	"medassist/internal/extract"
	"medassist/internal/mcpserver"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Stdout carries the MCP transport; all logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	pipeline, err := app.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble pipeline: %v", err)
	}

	provider := "openai"
	if cfg.LLM.BaseURL != "" {
		provider = "ollama"
	}
	srv, err := mcpserver.NewServer(pipeline, extract.NewFileExtractor(logger), mcpserver.Info{
		Provider:       provider,
		ChatModel:      cfg.LLM.ChatModel,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		IndexType:      cfg.Index.Type,
		UploadDir:      cfg.Server.UploadDir,
		MaxFileSizeMB:  cfg.Server.MaxFileSizeMB,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	if err := srv.ServeStdio(); err != nil {
		log.Fatal(err)
	}
}
