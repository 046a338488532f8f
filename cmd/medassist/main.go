package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"medassist/internal/app"
	"medassist/internal/config"
	"medassist/internal/tui"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()
	files := flag.Args()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The TUI owns the terminal; component logs are discarded here.
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	pipeline, err := app.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble pipeline: %v", err)
	}

	total := 0
	for _, f := range files {
		n, err := pipeline.Ingest(ctx, f)
		if err != nil {
			log.Fatalf("ingest %s failed: %v", f, err)
		}
		total += n
	}
	if len(files) == 0 && !pipeline.Ready() {
		fmt.Println("Usage: medassist [--config=config.yaml] file1.pdf [file2.txt ...]")
		fmt.Println("No files given and the index is empty; nothing to ask questions about.")
		os.Exit(1)
	}

	summary := fmt.Sprintf("Indexed %d chunks from %d documents. Type a question and press Enter.", total, len(files))
	if len(files) == 0 {
		summary = "Using previously indexed documents. Type a question and press Enter."
	}
	m := tui.New(pipeline, summary)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
