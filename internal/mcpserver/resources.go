package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const documentURIPrefix = "medical-docs://document/"

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}

func supportedDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".text":
		return true
	}
	return false
}

func (s *Server) handleUploadedDocuments(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := os.ReadDir(s.info.UploadDir)
	if err != nil {
		return nil, err
	}
	type docInfo struct {
		Filename  string `json:"filename"`
		SizeBytes int64  `json:"size_bytes"`
		Modified  int64  `json:"modified"`
		Type      string `json:"type"`
		URI       string `json:"uri"`
	}
	docs := make([]docInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !supportedDocument(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, docInfo{
			Filename:  e.Name(),
			SizeBytes: info.Size(),
			Modified:  info.ModTime().Unix(),
			Type:      strings.ToLower(filepath.Ext(e.Name())),
			URI:       documentURIPrefix + e.Name(),
		})
	}
	return jsonContents(req.Params.URI, map[string]any{
		"document_count":   len(docs),
		"upload_directory": s.info.UploadDir,
		"documents":        docs,
	})
}

func (s *Server) handleVectorStoreInfo(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := "empty"
	if s.pipeline.Ready() {
		status = "active"
	}
	return jsonContents(req.Params.URI, map[string]any{
		"index_type":      s.info.IndexType,
		"embedding_model": s.info.EmbeddingModel,
		"status":          status,
	})
}

func (s *Server) handleSystemStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, map[string]any{
		"llm_provider": s.info.Provider,
		"configuration": map[string]any{
			"chat_model":       s.info.ChatModel,
			"embedding_model":  s.info.EmbeddingModel,
			"index_type":       s.info.IndexType,
			"upload_dir":       s.info.UploadDir,
			"max_file_size_mb": s.info.MaxFileSizeMB,
		},
		"capabilities": map[string]any{
			"document_formats": []string{"PDF", "TXT"},
			"features": []string{
				"Document upload and processing",
				"Question answering",
				"Document search",
				"Medical entity extraction",
				"Document summarization",
			},
		},
	})
}

// previewLimit bounds the document-content resource; full documents go
// through the pipeline, the resource is only a preview.
const previewLimit = 2000

func (s *Server) handleDocumentContent(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := filepath.Base(strings.TrimPrefix(req.Params.URI, documentURIPrefix))
	if !supportedDocument(name) {
		return jsonContents(req.Params.URI, map[string]any{"error": "unsupported document: " + name})
	}
	text, err := s.extractor.Extract(ctx, filepath.Join(s.info.UploadDir, name))
	if err != nil {
		return jsonContents(req.Params.URI, map[string]any{"error": err.Error()})
	}
	runes := []rune(text)
	truncated := len(runes) > previewLimit
	preview := text
	if truncated {
		preview = string(runes[:previewLimit]) + "..."
	}
	return jsonContents(req.Params.URI, map[string]any{
		"filename":         name,
		"type":             strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		"preview":          preview,
		"total_characters": len(runes),
		"truncated":        truncated,
	})
}
