package rag

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/substrat-dev/ragd/internal/chunk"
	"github.com/substrat-dev/ragd/internal/graph"
	"github.com/substrat-dev/ragd/internal/store"
)

// embedConcurrency bounds parallel embedding calls per ingest request.
const embedConcurrency = 4

// IngestRequest carries one document's text into the pipeline.
type IngestRequest struct {
	TenantID string
	Text     string

	// Metadata is attached to every chunk of this document.
	Metadata map[string]any
}

// IngestResult reports what one ingestion persisted. Entity and
// relation counts are zero when graph extraction was skipped or failed.
type IngestResult struct {
	ChunkIDs           []uuid.UUID `json:"chunk_ids"`
	ChunksProcessed    int         `json:"chunks_processed"`
	EntitiesExtracted  int         `json:"entities_extracted"`
	RelationsExtracted int         `json:"relations_extracted"`
}

// Ingest chunks the text, embeds every chunk, persists the batch in a
// single transaction, then feeds the chunks to the graph indexer.
// Graph indexing is best-effort: its failure is logged, never returned.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	if strings.TrimSpace(req.TenantID) == "" {
		return IngestResult{}, fmt.Errorf("%w: tenant id is required", ErrValidation)
	}
	if strings.TrimSpace(req.Text) == "" {
		return IngestResult{}, fmt.Errorf("%w: text is required", ErrValidation)
	}

	size, overlap := p.cfg.ChunkSize, p.cfg.ChunkOverlap
	if size <= 0 {
		size = chunk.DefaultSize
		overlap = chunk.DefaultOverlap
	}

	pieces := chunk.Split(req.Text, size, overlap)
	if len(pieces) == 0 {
		return IngestResult{}, fmt.Errorf("%w: text contains no content", ErrValidation)
	}

	chunks, err := p.embedChunks(ctx, req, pieces)
	if err != nil {
		return IngestResult{}, err
	}

	if err := p.vectors.InsertBatch(ctx, chunks); err != nil {
		return IngestResult{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	result := IngestResult{
		ChunkIDs:        make([]uuid.UUID, len(chunks)),
		ChunksProcessed: len(chunks),
	}
	for i, c := range chunks {
		result.ChunkIDs[i] = c.ID
	}

	result.EntitiesExtracted, result.RelationsExtracted = p.indexGraph(ctx, req.TenantID, chunks)
	return result, nil
}

// embedChunks embeds pieces concurrently, keeping each embedding glued
// to its originating text by index. Any failure aborts the whole batch.
func (p *Pipeline) embedChunks(ctx context.Context, req IngestRequest, pieces []string) ([]store.Chunk, error) {
	chunks := make([]store.Chunk, len(pieces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for i, text := range pieces {
		g.Go(func() error {
			vec, err := p.embedder.EmbedDocument(gctx, text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			chunks[i] = store.Chunk{
				ID:        uuid.New(),
				TenantID:  req.TenantID,
				Content:   text,
				Embedding: vec,
				Metadata:  maps.Clone(req.Metadata),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	return chunks, nil
}

// indexGraph runs extraction over the freshly persisted chunks and
// returns how many entities and relations were saved.
func (p *Pipeline) indexGraph(ctx context.Context, tenantID string, chunks []store.Chunk) (entities, relations int) {
	if p.graphs == nil {
		return 0, 0
	}

	sources := make([]graph.Source, len(chunks))
	for i, c := range chunks {
		sources[i] = graph.Source{ID: c.ID.String(), Text: c.Content}
	}

	ex, err := p.graphs.Extract(ctx, sources)
	if err != nil {
		p.logger.Warn("graph extraction failed", "tenant_id", tenantID, "error", err)
		return 0, 0
	}
	if len(ex.Entities) == 0 && len(ex.Relations) == 0 {
		return 0, 0
	}

	if err := p.graphs.Save(ctx, tenantID, ex); err != nil {
		p.logger.Warn("graph save failed", "tenant_id", tenantID, "error", err)
		return 0, 0
	}

	p.logger.Info("graph indexed",
		"tenant_id", tenantID,
		"entities", len(ex.Entities),
		"relations", len(ex.Relations))
	return len(ex.Entities), len(ex.Relations)
}
