package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"medassist/internal/domain"
)

// FileExtractor converts PDF and plain-text documents into a single text
// blob, dispatching on the file extension.
type FileExtractor struct {
	log *slog.Logger
}

func NewFileExtractor(log *slog.Logger) *FileExtractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &FileExtractor{log: log}
}

func (e *FileExtractor) Extract(ctx context.Context, path string) (string, error) {
	source := filepath.Base(path)
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		text, err = readPlainText(path)
	case ".pdf":
		text, err = readPDF(path)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return "", &domain.ExtractionError{Source: source, Err: err}
	}
	e.log.Info("extracted document",
		slog.String("source", source),
		slog.Int("characters", len(text)))
	return text, nil
}

func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
