// Package api exposes the retrieval pipeline over HTTP REST.
//
// Endpoints:
//
//	GET  /health             liveness probe
//	GET  /ready              readiness probe (pings the database)
//	GET  /api/health         component health report
//	POST /api/ingest/text    ingest raw text
//	POST /api/ingest/file    ingest an uploaded file (txt, md, pdf, image)
//	POST /api/vector/insert  insert a pre-embedded chunk
//	POST /api/query          ask a question
//	GET  /api/graph          knowledge graph, optionally ?entity=X&depth=N
//	GET  /api/documents      ingested document records
//
// Every /api route except /api/health is tenant-scoped: the tenant comes
// from bearer-token auth and never from the request body.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/substrat-dev/ragd/internal/graph"
	"github.com/substrat-dev/ragd/internal/log"
	"github.com/substrat-dev/ragd/internal/rag"
	"github.com/substrat-dev/ragd/internal/store"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 60 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation calls can be slow, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum wait for the next keep-alive request.
	IdleTimeout = 120 * time.Second
)

// Pipeline is the ingestion and query surface the handlers call.
// *rag.Pipeline satisfies it.
type Pipeline interface {
	Ingest(ctx context.Context, req rag.IngestRequest) (rag.IngestResult, error)
	Query(ctx context.Context, req rag.QueryRequest) (rag.QueryResult, error)
}

// ChunkStore is the direct storage surface for vector insert and
// document listing. *store.Store satisfies it.
type ChunkStore interface {
	Insert(ctx context.Context, c store.Chunk) error
	RecordDocument(ctx context.Context, doc store.Document) (uuid.UUID, error)
	ListDocuments(ctx context.Context, tenantID string) ([]store.Document, error)
}

// GraphStore serves knowledge-graph reads. *graph.Store satisfies it.
type GraphStore interface {
	Graph(ctx context.Context, tenantID string) (graph.Graph, error)
	Subgraph(ctx context.Context, tenantID, entity string, depth int) (graph.Graph, error)
}

// ImageReader turns image bytes into text. *gemini.Client satisfies it.
type ImageReader interface {
	ExtractImageText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Server is the HTTP server for the REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a server with all routes registered. verifier may
// be nil, in which case the tenant is read from the X-Tenant-ID header;
// that mode is for development only. images may be nil, which rejects
// image uploads.
func NewServer(pipeline Pipeline, chunks ChunkStore, graphs GraphStore, images ImageReader, pool *pgxpool.Pool, verifier Verifier, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{mux: mux, logger: logger}

	health := &HealthHandler{pool: pool, logger: logger}
	mux.HandleFunc("GET /health", health.liveness)
	mux.HandleFunc("GET /ready", health.readiness)
	mux.HandleFunc("GET /api/health", health.report)

	limiter := newClientLimiter()
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(verifier, logger)(limiter.middleware(h))
	}

	ingest := &IngestHandler{pipeline: pipeline, chunks: chunks, images: images, logger: logger}
	mux.Handle("POST /api/ingest/text", protect(ingest.text))
	mux.Handle("POST /api/ingest/file", protect(ingest.file))

	query := &QueryHandler{pipeline: pipeline, logger: logger}
	mux.Handle("POST /api/query", protect(query.query))

	vector := &VectorHandler{chunks: chunks, logger: logger}
	mux.Handle("POST /api/vector/insert", protect(vector.insert))

	graphH := &GraphHandler{graphs: graphs, logger: logger}
	mux.Handle("GET /api/graph", protect(graphH.read))

	docs := &DocumentsHandler{chunks: chunks, logger: logger}
	mux.Handle("GET /api/documents", protect(docs.list))

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery, then logging, then the mux.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
