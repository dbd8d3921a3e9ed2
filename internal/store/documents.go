package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is the metadata record written after a file ingestion.
type Document struct {
	ID          uuid.UUID `json:"id"`
	TenantID    string    `json:"-"`
	Filename    string    `json:"filename"`
	FileURL     string    `json:"file_url"`
	FileType    string    `json:"type"`
	ChunksCount int       `json:"chunks_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordDocument persists a document-metadata record and returns its id.
func (s *Store) RecordDocument(ctx context.Context, doc Document) (uuid.UUID, error) {
	if doc.TenantID == "" {
		return uuid.Nil, ErrEmptyTenant
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO documents (id, tenant_id, filename, file_url, file_type, chunks_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`,
		doc.ID, doc.TenantID, doc.Filename, doc.FileURL, doc.FileType, doc.ChunksCount)
	if err != nil {
		return uuid.Nil, fmt.Errorf("recording document %q: %w", doc.Filename, err)
	}
	return doc.ID, nil
}

// ListDocuments returns the tenant's document records, newest first.
func (s *Store) ListDocuments(ctx context.Context, tenantID string) ([]Document, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenant
	}
	rows, err := s.db.Query(ctx, `
SELECT id, tenant_id, filename, file_url, file_type, chunks_count, created_at
FROM documents
WHERE tenant_id = $1
ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Filename, &d.FileURL, &d.FileType, &d.ChunksCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return docs, nil
}
