package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks github.com/GabrieILima/Chatbot-Suporte-P-S/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document metadata operations.
type DocumentStore interface {
	// GetBySourcePath gets a document by its normalized source path.
	// Returns nil and ErrNotFound if not found.
	GetBySourcePath(ctx context.Context, sourcePath string) (*DocumentRecord, error)
	// Upsert inserts a new document row or updates an existing one,
	// preserving the ID for an existing source path.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// DeleteBySourcePath removes a document and, via cascade, its chunks.
	DeleteBySourcePath(ctx context.Context, sourcePath string) error
	// Count returns the number of ingested documents.
	Count(ctx context.Context) (int, error)
}

// DocumentRepo provides methods for document metadata operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// GetBySourcePath gets a document by its normalized source path.
func (r *DocumentRepo) GetBySourcePath(ctx context.Context, sourcePath string) (*DocumentRecord, error) {
	var doc DocumentRecord
	var extractedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, source_path, ext, size_bytes, content_hash, extracted_at FROM documents WHERE source_path = ?",
		sourcePath,
	).Scan(&doc.ID, &doc.SourcePath, &doc.Ext, &doc.SizeBytes, &doc.ContentHash, &extractedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.ExtractedAt, err = parseTimestamp(extractedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extracted_at timestamp: %w", err)
	}

	return &doc, nil
}

// Upsert inserts a new document or updates an existing one.
// An existing row (by source_path) keeps its ID; the caller's ID is used
// only for new rows.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	existing, err := r.GetBySourcePath(ctx, doc.SourcePath)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil {
		doc.ID = existing.ID
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, source_path, ext, size_bytes, content_hash, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_path) DO UPDATE SET
		 ext = excluded.ext, size_bytes = excluded.size_bytes,
		 content_hash = excluded.content_hash, extracted_at = excluded.extracted_at`,
		doc.ID, doc.SourcePath, doc.Ext, doc.SizeBytes, doc.ContentHash,
		doc.ExtractedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// DeleteBySourcePath removes a document row; chunks cascade.
func (r *DocumentRepo) DeleteBySourcePath(ctx context.Context, sourcePath string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE source_path = ?", sourcePath)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Count returns the number of ingested documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// parseTimestamp handles both RFC3339 and SQLite's default DATETIME format.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
