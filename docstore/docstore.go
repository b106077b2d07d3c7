// Package docstore holds uploaded document bytes and derived metadata for
// the lifetime of the process (memory store) or across restarts (SQLite
// store). Both implementations satisfy the same Store contract: documents
// are append-only, and content, kind, and derived metadata never change
// after Put.
package docstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/uniparse/uniparse/idgen"
)

// ErrNotFound is returned when no document with the requested id exists.
var ErrNotFound = errors.New("docstore: document not found")

// ErrUnreadable is returned when uploaded bytes cannot be opened as the
// kind their filename claims (e.g. a .pdf file that is not a PDF stream).
var ErrUnreadable = errors.New("docstore: unreadable document")

// Document is one uploaded file plus metadata derived from its content.
// Content and Kind are immutable after Put; re-uploading the same logical
// file creates a new Document with a new ID.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Kind        Kind      `json:"kind"`
	Content     []byte    `json:"-"`
	PageCount   int       `json:"page_count,omitempty"` // PDF only
	SheetNames  []string  `json:"sheet_names,omitempty"` // EXCEL only, workbook order
	CreatedAt   time.Time `json:"created_at"`
}

// Extension returns the lowercase filename extension including the dot.
func (d *Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.Filename))
}

// Store is the document storage contract. Implementations own the stored
// bytes exclusively; callers receive views valid for the current request.
type Store interface {
	// Put classifies the file, derives kind-specific metadata, assigns a
	// fresh id and stores the document. Returns ErrUnreadable if the bytes
	// do not open as the classified kind.
	Put(ctx context.Context, filename, contentType string, content []byte) (*Document, error)

	// Get returns the stored document or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// RawBytes returns the stored content unchanged, for preview
	// rendering. Returns ErrNotFound for unknown ids.
	RawBytes(ctx context.Context, id string) (io.Reader, error)
}

// Config configures a store.
type Config struct {
	// NewID generates document ids. Default: idgen.Default (UUIDv7).
	NewID idgen.Generator

	// Logger for debug messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NewID == nil {
		c.NewID = idgen.Default
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// MemStore keeps documents in process memory. The id → document map is
// append-only after Put, so concurrent reads of different ids need no
// coordination beyond the map lock.
type MemStore struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemStore creates an in-memory document store.
func NewMemStore(cfg Config) *MemStore {
	cfg.defaults()
	return &MemStore{
		cfg:    cfg,
		logger: cfg.Logger,
		docs:   make(map[string]*Document),
	}
}

// Put implements Store.
func (s *MemStore) Put(_ context.Context, filename, contentType string, content []byte) (*Document, error) {
	doc, err := newDocument(s.cfg.NewID, filename, contentType, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()

	s.logger.Debug("stored document",
		"id", doc.ID, "kind", doc.Kind, "bytes", len(doc.Content))
	return doc, nil
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, id string) (*Document, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// RawBytes implements Store.
func (s *MemStore) RawBytes(ctx context.Context, id string) (io.Reader, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.Content), nil
}

// newDocument classifies, derives metadata and assigns an id. Shared by
// every Store implementation so the derivation rules stay in one place.
func newDocument(newID idgen.Generator, filename, contentType string, content []byte) (*Document, error) {
	kind := Classify(filename)

	meta, err := deriveMetadata(kind, content)
	if err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = DefaultContentType(kind)
	}

	return &Document{
		ID:          newID(),
		Filename:    filename,
		ContentType: contentType,
		Kind:        kind,
		Content:     content,
		PageCount:   meta.pageCount,
		SheetNames:  meta.sheetNames,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
