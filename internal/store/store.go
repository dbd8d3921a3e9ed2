// Package store persists chunks with their embeddings in PostgreSQL and
// executes tenant-scoped nearest-neighbor search via pgvector.
//
// Tenant isolation is structural: every query carries the tenant id in its
// WHERE clause, so no code path can rank another tenant's vectors even if an
// index misbehaves. Chunks are immutable once written.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/substrat-dev/ragd/internal/log"
)

// VectorDimension is the fixed embedding size, matching the vector(768)
// column and the embedder's output dimensionality.
const VectorDimension = 768

const (
	// DefaultTopK is the search result limit when the caller does not set one.
	DefaultTopK = 5

	// MaxTopK caps top-k to bound compute and response size.
	MaxTopK = 20

	// DefaultMaxDistance excludes results at or beyond this cosine distance.
	DefaultMaxDistance = 1.0
)

var (
	// ErrDimensionMismatch indicates an embedding of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyTenant indicates a missing tenant id.
	ErrEmptyTenant = errors.New("tenant id must not be empty")
)

// Chunk is the atomic retrievable unit: a passage of text plus its embedding.
type Chunk struct {
	ID        uuid.UUID
	TenantID  string
	Content   string
	Embedding []float32
	Metadata  map[string]any
	CreatedAt time.Time
}

// Result is a search hit. Distance is cosine distance: smaller = more
// similar. Embeddings are not loaded back on search.
type Result struct {
	Chunk    Chunk
	Distance float64
}

// DB is the database surface Store needs. *pgxpool.Pool satisfies it;
// tests substitute a fake.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store manages chunk persistence and similarity search.
// Safe for concurrent use.
type Store struct {
	db     DB
	logger log.Logger
}

// New creates a Store. logger may be nil.
func New(db DB, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// SearchOption configures Search via the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK        int
	maxDistance float64
}

// WithTopK bounds the number of results. Values outside [1, MaxTopK] are
// clamped.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) { c.topK = k }
}

// WithMaxDistance overrides the distance cutoff. Results with distance >=
// the cutoff are excluded.
func WithMaxDistance(d float64) SearchOption {
	return func(c *searchConfig) { c.maxDistance = d }
}

func buildSearchConfig(opts []SearchOption) searchConfig {
	cfg := searchConfig{topK: DefaultTopK, maxDistance: DefaultMaxDistance}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.topK < 1 {
		cfg.topK = 1
	}
	if cfg.topK > MaxTopK {
		cfg.topK = MaxTopK
	}
	return cfg
}

const insertChunkSQL = `
INSERT INTO chunks (id, tenant_id, content, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, now())`

// Insert persists a single chunk. The caller supplies the id; duplicate ids
// surface as a unique-violation error (no in-store dedup).
func (s *Store) Insert(ctx context.Context, c Chunk) error {
	args, err := insertArgs(c)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, insertChunkSQL, args...); err != nil {
		return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
	}
	s.logger.Debug("chunk inserted", "id", c.ID, "tenant", c.TenantID)
	return nil
}

// InsertBatch persists a document's chunks in a single transaction, so a
// mid-batch failure leaves no partial chunk set behind.
func (s *Store) InsertBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	// Validate everything before opening the transaction.
	argSets := make([][]any, 0, len(chunks))
	for _, c := range chunks {
		args, err := insertArgs(c)
		if err != nil {
			return err
		}
		argSets = append(argSets, args)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, args := range argSets {
		if _, err := tx.Exec(ctx, insertChunkSQL, args...); err != nil {
			return fmt.Errorf("inserting chunk %s (%d of %d): %w", chunks[i].ID, i+1, len(chunks), err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunk batch: %w", err)
	}

	s.logger.Debug("chunk batch inserted", "count", len(chunks), "tenant", chunks[0].TenantID)
	return nil
}

func insertArgs(c Chunk) ([]any, error) {
	if c.TenantID == "" {
		return nil, ErrEmptyTenant
	}
	if len(c.Embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(c.Embedding), VectorDimension)
	}
	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata for chunk %s: %w", c.ID, err)
	}
	return []any{c.ID, c.TenantID, c.Content, pgvector.NewVector(c.Embedding), metadataJSON}, nil
}

// searchSQL ranks by cosine distance. The tenant predicate is part of the
// query itself, never applied post-hoc. Ties break on created_at then id
// for deterministic ordering.
const searchSQL = `
SELECT id, tenant_id, content, metadata, created_at, embedding <=> $2 AS distance
FROM chunks
WHERE tenant_id = $1
  AND embedding <=> $2 < $3
ORDER BY embedding <=> $2, created_at, id
LIMIT $4`

// Search returns the tenant's nearest chunks to the query vector, ascending
// by distance, excluding anything at or beyond the distance cutoff.
func (s *Store) Search(ctx context.Context, tenantID string, queryVec []float32, opts ...SearchOption) ([]Result, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenant
	}
	if len(queryVec) != VectorDimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(queryVec), VectorDimension)
	}
	cfg := buildSearchConfig(opts)

	rows, err := s.db.Query(ctx, searchSQL, tenantID, pgvector.NewVector(queryVec), cfg.maxDistance, cfg.topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r            Result
			metadataJSON []byte
		)
		if err := rows.Scan(&r.Chunk.ID, &r.Chunk.TenantID, &r.Chunk.Content, &metadataJSON, &r.Chunk.CreatedAt, &r.Distance); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &r.Chunk.Metadata); err != nil {
				s.logger.Warn("failed to parse chunk metadata", "chunk_id", r.Chunk.ID, "error", err)
				r.Chunk.Metadata = map[string]any{}
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}
	return results, nil
}

// Count returns the number of chunks owned by the tenant.
func (s *Store) Count(ctx context.Context, tenantID string) (int64, error) {
	if tenantID == "" {
		return 0, ErrEmptyTenant
	}
	var count int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM chunks WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}
