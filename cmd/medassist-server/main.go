package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"medassist/internal/api"
	"medassist/internal/app"
	"medassist/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	pipeline, err := app.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble pipeline: %v", err)
	}

	secret := os.Getenv(cfg.Server.SecretKeyEnv)
	if secret == "" {
		secret = "dev-secret-key-change-in-production"
		logger.Warn("using development secret key", slog.String("env", cfg.Server.SecretKeyEnv))
	}
	srv, err := api.NewServer(pipeline, cfg.Server, []byte(secret), logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	logger.Info("listening", slog.String("addr", cfg.Server.Addr))
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
