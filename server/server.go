// Package server exposes the extraction pipeline over HTTP: upload,
// preview, sheet listing and parse. It is a thin boundary: all branching
// logic lives in docstore and extract.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uniparse/uniparse/docstore"
	"github.com/uniparse/uniparse/extract"
)

// Config configures the HTTP service.
type Config struct {
	// MaxUploadBytes caps one multipart upload (default: 100 MB).
	MaxUploadBytes int64

	// ParseTimeout bounds one extraction end to end (default: 2m).
	// Expiry aborts the request and surfaces 504; no partial markdown is
	// ever written.
	ParseTimeout time.Duration

	// AllowedOrigins for CORS. Empty or "*" allows any origin.
	AllowedOrigins []string

	// Logger for request-scoped messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 100 * 1024 * 1024
	}
	if c.ParseTimeout <= 0 {
		c.ParseTimeout = 2 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service wires the document store and extraction pipeline to HTTP routes.
type Service struct {
	cfg    Config
	store  docstore.Store
	pipe   *extract.Pipeline
	logger *slog.Logger
}

// New creates the HTTP service.
func New(store docstore.Store, pipe *extract.Pipeline, cfg Config) *Service {
	cfg.defaults()
	return &Service{
		cfg:    cfg,
		store:  store,
		pipe:   pipe,
		logger: cfg.Logger,
	}
}

// RegisterHTTP mounts all routes on the router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Use(s.corsMiddleware)
	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Get("/pdf/{id}", s.handlePDF)
	r.Get("/sheets/{id}", s.handleSheets)
	r.Post("/parse/{id}", s.handleParse)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload stores a multipart file and returns its id and derived
// metadata. POST /upload
func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("multipart file required: %w", err))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("file name is required"))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	doc, err := s.store.Put(r.Context(), header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("document uploaded",
		"id", doc.ID, "kind", doc.Kind, "bytes", len(content))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           doc.ID,
		"filename":     doc.Filename,
		"page_count":   doc.PageCount,
		"content_type": doc.ContentType,
		"extension":    doc.Extension(),
	})
}

// handlePDF serves the stored bytes unchanged for client-side preview
// rendering. GET /pdf/{id}
func (s *Service) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if doc.Kind != docstore.KindPDF {
		s.writeError(w, r, http.StatusNotFound, errors.New("pdf not found"))
		return
	}

	raw, err := s.store.RawBytes(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	if _, err := io.Copy(w, raw); err != nil {
		s.logger.Warn("pdf stream interrupted", "id", id, "error", err)
	}
}

// handleSheets lists workbook sheets for Excel documents. GET /sheets/{id}
func (s *Service) handleSheets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if doc.Kind != docstore.KindExcel {
		s.writeError(w, r, http.StatusBadRequest, errors.New("sheets are only available for Excel documents"))
		return
	}

	sheets := doc.SheetNames
	if sheets == nil {
		sheets = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": doc.ID, "sheets": sheets})
}

// handleParse runs one extraction. POST /parse/{id}?page=N&sheet=S with an
// optional JSON body of per-request refiner overrides.
func (s *Service) handleParse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req := extract.Request{Sheet: r.URL.Query().Get("sheet")}
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid page %q", pageStr))
			return
		}
		req.Page = page
	}

	var ov extract.RefineOverrides
	if err := json.NewDecoder(r.Body).Decode(&ov); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid overrides body: %w", err))
		return
	}
	if ov != (extract.RefineOverrides{}) {
		req.Refine = &ov
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ParseTimeout)
	defer cancel()

	res, err := s.pipe.Parse(ctx, id, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           id,
		"markdown":     res.Markdown,
		"page":         req.Page,
		"engine":       res.Engine,
		"content_type": doc.ContentType,
		"extension":    doc.Extension(),
	})
}

// writeDomainError maps docstore/extract errors onto HTTP status codes.
func (s *Service) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, docstore.ErrUnreadable),
		errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, extract.ErrInvalidPage),
		errors.Is(err, extract.ErrUnknownSheet):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	s.writeError(w, r, status, err)
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
