// Package api exposes the HTTP surface: query answering, file listing and
// upload, and retrieval of generated chart artifacts.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fabfab/bi-agent/config"
	"github.com/fabfab/bi-agent/forecast"
	"github.com/fabfab/bi-agent/orchestrator"
	"github.com/fabfab/bi-agent/pipeline"
)

// Server wires the orchestrator to HTTP handlers.
type Server struct {
	cfg     config.Config
	orch    *orchestrator.Orchestrator
	logger  *log.Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type askRequest struct {
	Query         string   `json:"query"`
	SelectedFiles []string `json:"selected_files"`
}

type filesResponse struct {
	Files []string `json:"files"`
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// New constructs a Server serving the HTTP API with the provided
// configuration and orchestrator.
func New(cfg config.Config, orch *orchestrator.Orchestrator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{cfg: cfg, orch: orch, logger: logger}
	s.handler = withCORS(s.routes())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/ask", s.handleAsk)
	mux.HandleFunc("/api/files", s.handleFiles)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.Handle(forecast.PublicPathPrefix, http.StripPrefix(forecast.PublicPathPrefix,
		http.FileServer(http.Dir(s.cfg.PlotDir))))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}

	envelope := s.orch.Ask(r.Context(), pipeline.Query{
		Text:          req.Query,
		SelectedFiles: req.SelectedFiles,
	})

	s.writeJSON(w, http.StatusOK, envelope)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	entries, err := os.ReadDir(s.cfg.DataDir)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("read data directory: %w", err))
		return
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	s.writeJSON(w, http.StatusOK, filesResponse{Files: files})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid filename"))
		return
	}

	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("create data directory: %w", err))
		return
	}

	path := filepath.Join(s.cfg.DataDir, name)
	dst, err := os.Create(path)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("create file: %w", err))
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("save file: %w", err))
		return
	}

	s.logger.Printf("uploaded %s", name)
	s.writeJSON(w, http.StatusOK, uploadResponse{Filename: name, Path: path})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("api error (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
