// Package rag orchestrates the retrieval-augmented pipeline: ingestion
// (chunk, embed, persist, extract) and querying (embed, search,
// assemble, generate).
//
// All collaborators are consumer-defined interfaces so the pipeline can
// be exercised without a database or a model behind it.
package rag

import (
	"context"
	"errors"

	"github.com/substrat-dev/ragd/internal/graph"
	"github.com/substrat-dev/ragd/internal/log"
	"github.com/substrat-dev/ragd/internal/store"
)

var (
	// ErrValidation indicates rejected input: empty tenant, empty text,
	// out-of-range parameters.
	ErrValidation = errors.New("invalid request")

	// ErrEmbedding indicates the embedding backend failed after retries.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the answer model failed.
	ErrGeneration = errors.New("generation failed")

	// ErrStore indicates a vector store failure.
	ErrStore = errors.New("store operation failed")
)

// Embedder turns text into vectors. Documents and queries use distinct
// task intents, so they are distinct methods. *gemini.Client satisfies it.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a prompt. *gemini.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorStore persists and searches chunks. *store.Store satisfies it.
type VectorStore interface {
	InsertBatch(ctx context.Context, chunks []store.Chunk) error
	Search(ctx context.Context, tenantID string, queryVec []float32, opts ...store.SearchOption) ([]store.Result, error)
}

// GraphIndexer extracts and persists the knowledge-graph side-index.
type GraphIndexer interface {
	Extract(ctx context.Context, sources []graph.Source) (graph.Extraction, error)
	Save(ctx context.Context, tenantID string, ex graph.Extraction) error
}

// Config tunes the pipeline. Zero values fall back to package defaults.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	MaxDistance  float64
}

// Pipeline wires the stages together. Safe for concurrent use.
type Pipeline struct {
	embedder Embedder
	gen      Generator
	vectors  VectorStore
	graphs   GraphIndexer
	cfg      Config
	logger   log.Logger
}

// New creates a pipeline. graphs may be nil, which disables the
// knowledge-graph side-index. logger may be nil.
func New(embedder Embedder, gen Generator, vectors VectorStore, graphs GraphIndexer, cfg Config, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		embedder: embedder,
		gen:      gen,
		vectors:  vectors,
		graphs:   graphs,
		cfg:      cfg,
		logger:   logger,
	}
}
