package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Schema is the SQLite schema for the durable document store. Pass to
// dbopen.Open via WithSchema, or execute before NewSQLiteStore.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	content_type TEXT NOT NULL,
	kind         TEXT NOT NULL,
	content      BLOB NOT NULL,
	page_count   INTEGER NOT NULL DEFAULT 0,
	sheet_names  TEXT NOT NULL DEFAULT '[]',
	created_at   INTEGER NOT NULL
);
`

// SQLiteStore is the durable Store implementation. It preserves the exact
// Put/Get/RawBytes contract of MemStore while surviving restarts.
type SQLiteStore struct {
	cfg    Config
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a document store backed by the given database.
// The Schema must already be applied.
func NewSQLiteStore(db *sql.DB, cfg Config) *SQLiteStore {
	cfg.defaults()
	return &SQLiteStore{
		cfg:    cfg,
		db:     db,
		logger: cfg.Logger,
	}
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, filename, contentType string, content []byte) (*Document, error) {
	doc, err := newDocument(s.cfg.NewID, filename, contentType, content)
	if err != nil {
		return nil, err
	}

	sheets, err := json.Marshal(doc.SheetNames)
	if err != nil {
		return nil, fmt.Errorf("docstore: marshal sheet names: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents
			(id, filename, content_type, kind, content, page_count, sheet_names, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.ContentType, string(doc.Kind), doc.Content,
		doc.PageCount, string(sheets), doc.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("docstore: insert document: %w", err)
	}

	s.logger.Debug("stored document",
		"id", doc.ID, "kind", doc.Kind, "bytes", len(doc.Content))
	return doc, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Document, error) {
	var (
		doc       Document
		kind      string
		sheets    string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content_type, kind, content, page_count, sheet_names, created_at
		FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Filename, &doc.ContentType, &kind, &doc.Content,
		&doc.PageCount, &sheets, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: select document: %w", err)
	}

	doc.Kind = Kind(kind)
	doc.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(sheets), &doc.SheetNames); err != nil {
		return nil, fmt.Errorf("docstore: unmarshal sheet names: %w", err)
	}
	return &doc, nil
}

// RawBytes implements Store.
func (s *SQLiteStore) RawBytes(ctx context.Context, id string) (io.Reader, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.Content), nil
}
