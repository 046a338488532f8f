package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"medassist/internal/domain"
)

// Pipeline is the MCP-facing subset of the document pipeline.
type Pipeline interface {
	Ingest(ctx context.Context, path string) (int, error)
	Answer(ctx context.Context, question string) (domain.Answer, error)
	Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)
	Ready() bool
}

// Info describes the deployment for the system-status resource.
type Info struct {
	Provider       string
	ChatModel      string
	EmbeddingModel string
	IndexType      string
	UploadDir      string
	MaxFileSizeMB  int
}

// Server exposes the document pipeline to AI assistants as MCP tools and
// resources over stdio. Like the HTTP collaborator it holds no pipeline
// logic of its own.
type Server struct {
	pipeline  Pipeline
	extractor domain.Extractor
	info      Info
	log       *slog.Logger
}

func NewServer(pipeline Pipeline, extractor domain.Extractor, info Info, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(info.UploadDir, 0o755); err != nil {
		return nil, err
	}
	return &Server{pipeline: pipeline, extractor: extractor, info: info, log: log}, nil
}

// MCPServer returns the tool and resource table.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("medical-document-assistant", "0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	srv.AddTool(mcp.NewTool("upload_document",
		mcp.WithDescription("Upload and process a medical document (PDF or TXT) for analysis"),
		mcp.WithString("content", mcp.Required(), mcp.Description("Base64 encoded content of the document")),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Name of the document file (must end in .pdf or .txt)")),
	), s.handleUploadDocument)

	srv.AddTool(mcp.NewTool("ask_document_question",
		mcp.WithDescription("Ask a question about uploaded medical documents"),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question to ask about the medical documents")),
	), s.handleAskQuestion)

	srv.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Search for similar content in uploaded documents"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query to find relevant document sections")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results to return"), mcp.DefaultNumber(3)),
	), s.handleSearchDocuments)

	srv.AddTool(mcp.NewTool("summarize_document",
		mcp.WithDescription("Generate a summary of uploaded medical documents"),
		mcp.WithString("focus", mcp.Description("Specific aspect to focus on (e.g., 'findings', 'medications', 'treatment')"), mcp.DefaultString("general")),
	), s.handleSummarizeDocument)

	srv.AddTool(mcp.NewTool("extract_medical_entities",
		mcp.WithDescription("Extract medical entities (conditions, medications, procedures) from documents"),
		mcp.WithArray("entity_types",
			mcp.Description("Types of medical entities to extract"),
			mcp.Items(map[string]any{"type": "string", "enum": []string{"conditions", "medications", "procedures", "all"}}),
		),
	), s.handleExtractEntities)

	srv.AddResource(mcp.NewResource("medical-docs://uploaded-documents", "Uploaded Documents",
		mcp.WithResourceDescription("List of all uploaded medical documents"),
		mcp.WithMIMEType("application/json"),
	), s.handleUploadedDocuments)

	srv.AddResource(mcp.NewResource("medical-docs://vector-store-info", "Vector Store Information",
		mcp.WithResourceDescription("Information about the current vector store status"),
		mcp.WithMIMEType("application/json"),
	), s.handleVectorStoreInfo)

	srv.AddResource(mcp.NewResource("medical-docs://system-status", "System Status",
		mcp.WithResourceDescription("Current system configuration and status"),
		mcp.WithMIMEType("application/json"),
	), s.handleSystemStatus)

	srv.AddResourceTemplate(mcp.NewResourceTemplate("medical-docs://document/{filename}", "Document",
		mcp.WithTemplateDescription("Content preview of an individual uploaded document"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.handleDocumentContent)

	return srv
}

// ServeStdio runs the server on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.MCPServer())
}

// toolError maps the pipeline error taxonomy onto tool-level errors; MCP
// surfaces these as failed tool results rather than protocol errors.
func (s *Server) toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, domain.ErrNotReady) {
		return mcp.NewToolResultError("No documents available. Please upload documents first.")
	}
	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		s.log.Error("backend failure", slog.String("backend", remoteErr.Backend), slog.Any("error", remoteErr.Err))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(data))
}
