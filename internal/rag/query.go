package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/substrat-dev/ragd/internal/store"
)

// QueryRequest is one question against a tenant's knowledge base.
type QueryRequest struct {
	TenantID string
	Question string

	// TopK overrides the configured result limit when > 0.
	TopK int

	// MaxDistance overrides the configured distance cutoff when > 0.
	MaxDistance float64
}

// RetrievedChunk is one passage that backed an answer.
type RetrievedChunk struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    float64        `json:"score"`
	Type     string         `json:"type,omitempty"`
	ImageURL string         `json:"image_url,omitempty"`
}

// QueryResult is the answer plus the evidence behind it. ContextUsed
// carries the assembled context that was fed to the model, empty when
// retrieval found nothing.
type QueryResult struct {
	Answer      string           `json:"answer"`
	Chunks      []RetrievedChunk `json:"chunks"`
	ContextUsed string           `json:"context_used"`
	Scores      []float64        `json:"scores"`
}

// Query embeds the question, searches the tenant's chunks, and
// generates a grounded answer. When retrieval finds nothing the model
// is not called at all and a fixed answer is returned.
func (p *Pipeline) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	if strings.TrimSpace(req.TenantID) == "" {
		return QueryResult{}, fmt.Errorf("%w: tenant id is required", ErrValidation)
	}
	if strings.TrimSpace(req.Question) == "" {
		return QueryResult{}, fmt.Errorf("%w: question is required", ErrValidation)
	}
	if req.TopK > store.MaxTopK {
		return QueryResult{}, fmt.Errorf("%w: top_k %d exceeds limit %d", ErrValidation, req.TopK, store.MaxTopK)
	}

	queryVec, err := p.embedder.EmbedQuery(ctx, req.Question)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	results, err := p.vectors.Search(ctx, req.TenantID, queryVec, p.searchOptions(req)...)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	if len(results) == 0 {
		p.logger.Debug("query retrieved nothing", "tenant_id", req.TenantID)
		return QueryResult{
			Answer: emptySearchAnswer,
			Chunks: []RetrievedChunk{},
			Scores: []float64{},
		}, nil
	}

	assembled := assembleContext(results)
	answer, err := p.answer(ctx, assembled, req.Question)
	if err != nil {
		return QueryResult{}, err
	}

	return QueryResult{
		Answer:      answer,
		Chunks:      retrievedChunks(results),
		ContextUsed: assembled,
		Scores:      scores(results),
	}, nil
}

func (p *Pipeline) searchOptions(req QueryRequest) []store.SearchOption {
	var opts []store.SearchOption

	switch {
	case req.TopK > 0:
		opts = append(opts, store.WithTopK(req.TopK))
	case p.cfg.TopK > 0:
		opts = append(opts, store.WithTopK(p.cfg.TopK))
	}

	switch {
	case req.MaxDistance > 0:
		opts = append(opts, store.WithMaxDistance(req.MaxDistance))
	case p.cfg.MaxDistance > 0:
		opts = append(opts, store.WithMaxDistance(p.cfg.MaxDistance))
	}

	return opts
}

func retrievedChunks(results []store.Result) []RetrievedChunk {
	out := make([]RetrievedChunk, len(results))
	for i, r := range results {
		rc := RetrievedChunk{
			ID:       r.Chunk.ID.String(),
			Text:     r.Chunk.Content,
			Metadata: r.Chunk.Metadata,
			Score:    r.Distance,
		}
		if v, ok := r.Chunk.Metadata["type"].(string); ok {
			rc.Type = v
		}
		if v, ok := r.Chunk.Metadata["image_url"].(string); ok {
			rc.ImageURL = v
		}
		out[i] = rc
	}
	return out
}

func scores(results []store.Result) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Distance
	}
	return out
}
