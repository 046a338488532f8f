package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"medassist/internal/domain"
)

func (s *Server) handleUploadDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".pdf" && ext != ".txt" && ext != ".text" {
		return mcp.NewToolResultError("Unsupported file type " + ext + ". Only PDF and TXT files are supported."), nil
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return mcp.NewToolResultError("content is not valid base64: " + err.Error()), nil
	}

	path := filepath.Join(s.info.UploadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return mcp.NewToolResultError("could not save file: " + err.Error()), nil
	}
	chunks, err := s.pipeline.Ingest(ctx, path)
	if err != nil {
		os.Remove(path)
		return s.toolError(err), nil
	}
	s.log.Info("upload received", slog.String("filename", name), slog.Int("chunks", chunks))
	return jsonResult(map[string]any{
		"status":         "success",
		"message":        fmt.Sprintf("Document %q uploaded and processed successfully", name),
		"chunks_created": chunks,
		"filename":       name,
	}), nil
}

func (s *Server) handleAskQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ans, err := s.pipeline.Answer(ctx, question)
	if err != nil {
		return s.toolError(err), nil
	}
	return jsonResult(ans), nil
}

// searchHit mirrors the per-result shape of the search tool's JSON output.
// Content is truncated to keep tool results compact; the excerpt limit here
// is looser than the citation limit because search is an exploration tool.
type searchHit struct {
	Rank       int     `json:"rank"`
	Source     string  `json:"source"`
	Chunk      int     `json:"chunk"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

const searchContentLimit = 500

func (s *Server) handleSearchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 3)

	results, err := s.pipeline.Search(ctx, query, limit)
	if err != nil {
		return s.toolError(err), nil
	}
	hits := make([]searchHit, len(results))
	for i, r := range results {
		content := r.Chunk.Text
		if runes := []rune(content); len(runes) > searchContentLimit {
			content = string(runes[:searchContentLimit]) + "..."
		}
		hits[i] = searchHit{
			Rank:       i + 1,
			Source:     r.Chunk.Source,
			Chunk:      r.Chunk.Index,
			Content:    content,
			Similarity: r.Similarity,
		}
	}
	return jsonResult(map[string]any{
		"query":         query,
		"results_count": len(hits),
		"results":       hits,
	}), nil
}

var focusQuestions = map[string]string{
	"general":     "Provide a comprehensive summary of the main content and key points in these documents.",
	"findings":    "Summarize the key findings, results, and conclusions from these documents.",
	"medications": "List and summarize all medications, treatments, and therapeutic interventions mentioned.",
	"treatment":   "Summarize all treatment plans, procedures, and interventions discussed.",
	"diagnosis":   "Summarize any diagnoses, conditions, or medical assessments mentioned.",
}

func (s *Server) handleSummarizeDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	focus := req.GetString("focus", "general")
	question, ok := focusQuestions[focus]
	if !ok {
		focus = "general"
		question = focusQuestions[focus]
	}
	ans, err := s.pipeline.Answer(ctx, question)
	if err != nil {
		return s.toolError(err), nil
	}
	return jsonResult(map[string]any{
		"focus":   focus,
		"summary": ans.Text,
		"sources": ans.Sources,
	}), nil
}

var entityQuestions = map[string]string{
	"conditions":  "List all medical conditions, diseases, and diagnoses mentioned in the documents.",
	"medications": "List all medications, drugs, and pharmaceutical treatments mentioned.",
	"procedures":  "List all medical procedures, surgeries, and interventions mentioned.",
}

var entityOrder = []string{"conditions", "medications", "procedures"}

func (s *Server) handleExtractEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requested := req.GetStringSlice("entity_types", []string{"all"})

	wanted := make(map[string]bool, len(requested))
	for _, t := range requested {
		if t == "all" {
			for _, e := range entityOrder {
				wanted[e] = true
			}
			continue
		}
		if _, ok := entityQuestions[t]; ok {
			wanted[t] = true
		}
	}
	if len(wanted) == 0 {
		return mcp.NewToolResultError("no valid entity types requested"), nil
	}

	type extraction struct {
		Entities string             `json:"entities"`
		Sources  []domain.SourceRef `json:"sources"`
	}
	extracted := make(map[string]extraction, len(wanted))
	for _, entityType := range entityOrder {
		if !wanted[entityType] {
			continue
		}
		ans, err := s.pipeline.Answer(ctx, entityQuestions[entityType])
		if err != nil {
			return s.toolError(err), nil
		}
		extracted[entityType] = extraction{Entities: ans.Text, Sources: ans.Sources}
	}
	return jsonResult(map[string]any{
		"extracted_entities":     extracted,
		"entity_types_requested": requested,
	}), nil
}
