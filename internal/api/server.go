package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medassist/internal/config"
	"medassist/internal/domain"
)

// Pipeline is the API-facing subset of the document pipeline.
type Pipeline interface {
	Ingest(ctx context.Context, path string) (int, error)
	Answer(ctx context.Context, question string) (domain.Answer, error)
}

// Server is a thin HTTP wrapper around the pipeline: login, upload, ask,
// and two informational endpoints. It holds no pipeline logic of its own.
type Server struct {
	pipeline     Pipeline
	log          *slog.Logger
	secret       []byte
	tokenExpiry  time.Duration
	uploadDir    string
	maxFileBytes int64
	demoUsername string
	demoPassword string
}

func NewServer(pipeline Pipeline, cfg config.ServerConfig, secret []byte, log *slog.Logger) (*Server, error) {
	if len(secret) == 0 {
		return nil, &domain.ConfigurationError{Field: "server.secret_key_env", Reason: "secret key is not set"}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, err
	}
	return &Server{
		pipeline:     pipeline,
		log:          log,
		secret:       secret,
		tokenExpiry:  time.Duration(cfg.TokenExpiryMins) * time.Minute,
		uploadDir:    cfg.UploadDir,
		maxFileBytes: int64(cfg.MaxFileSizeMB) << 20,
		demoUsername: cfg.DemoUsername,
		demoPassword: cfg.DemoPassword,
	}, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /token", s.handleToken)
	mux.HandleFunc("POST /upload", s.authenticated(s.handleUpload))
	mux.HandleFunc("POST /ask", s.authenticated(s.handleAsk))
	mux.HandleFunc("GET /documents", s.authenticated(s.handleDocuments))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username != s.demoUsername || password != s.demoPassword {
		s.log.Warn("failed login attempt", slog.String("username", username))
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	token, err := s.createAccessToken(username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	s.log.Info("successful login", slog.String("username", username))
	writeJSON(w, http.StatusOK, Token{AccessToken: token, TokenType: "bearer"})
}

type uploadResponse struct {
	Filename      string `json:"filename"`
	Message       string `json:"message"`
	ChunksCreated int    `json:"chunks_created"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, username string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxFileBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".pdf" && ext != ".txt" && ext != ".text" {
		writeError(w, http.StatusBadRequest, "Unsupported file type "+ext+". Only PDF and TXT files are supported.")
		return
	}
	s.log.Info("upload received", slog.String("username", username), slog.String("filename", name))

	path := filepath.Join(s.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not save file")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		writeError(w, http.StatusInternalServerError, "could not save file")
		return
	}
	dst.Close()

	chunks, err := s.pipeline.Ingest(r.Context(), path)
	if err != nil {
		os.Remove(path)
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Filename:      name,
		Message:       "Document uploaded and processed successfully",
		ChunksCreated: chunks,
	})
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request, username string) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	s.log.Info("question received", slog.String("username", username))
	answer, err := s.pipeline.Answer(r.Context(), req.Question)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, username string) {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list documents")
		return
	}
	type fileInfo struct {
		Filename   string `json:"filename"`
		SizeBytes  int64  `json:"size_bytes"`
		UploadedAt int64  `json:"uploaded_at"`
	}
	docs := make([]fileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, fileInfo{Filename: e.Name(), SizeBytes: info.Size(), UploadedAt: info.ModTime().Unix()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

// writePipelineError maps the pipeline error taxonomy onto HTTP statuses:
// not-ready and bad documents are client errors, remote backend failures
// are gateway errors.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var (
		extractionErr *domain.ExtractionError
		remoteErr     *domain.RemoteError
	)
	switch {
	case errors.Is(err, domain.ErrNotReady):
		writeError(w, http.StatusBadRequest, "No documents available. Please upload documents first.")
	case errors.As(err, &extractionErr):
		writeError(w, http.StatusBadRequest, extractionErr.Error())
	case errors.As(err, &remoteErr):
		s.log.Error("backend failure", slog.String("backend", remoteErr.Backend), slog.Any("error", remoteErr.Err))
		writeError(w, http.StatusBadGateway, remoteErr.Error())
	default:
		s.log.Error("request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
