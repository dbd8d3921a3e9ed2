package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/substrat-dev/ragd/internal/graph"
	"github.com/substrat-dev/ragd/internal/rag"
	"github.com/substrat-dev/ragd/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePipeline records requests and replays canned results.
type fakePipeline struct {
	ingestReq    *rag.IngestRequest
	ingestResult rag.IngestResult
	ingestErr    error

	queryReq    *rag.QueryRequest
	queryResult rag.QueryResult
	queryErr    error
}

func (f *fakePipeline) Ingest(_ context.Context, req rag.IngestRequest) (rag.IngestResult, error) {
	f.ingestReq = &req
	if f.ingestErr != nil {
		return rag.IngestResult{}, f.ingestErr
	}
	return f.ingestResult, nil
}

func (f *fakePipeline) Query(_ context.Context, req rag.QueryRequest) (rag.QueryResult, error) {
	f.queryReq = &req
	if f.queryErr != nil {
		return rag.QueryResult{}, f.queryErr
	}
	return f.queryResult, nil
}

type fakeChunkStore struct {
	inserted  *store.Chunk
	insertErr error

	recorded *store.Document
	docs     []store.Document
	listErr  error
}

func (f *fakeChunkStore) Insert(_ context.Context, c store.Chunk) error {
	f.inserted = &c
	return f.insertErr
}

func (f *fakeChunkStore) RecordDocument(_ context.Context, doc store.Document) (uuid.UUID, error) {
	f.recorded = &doc
	return uuid.New(), nil
}

func (f *fakeChunkStore) ListDocuments(_ context.Context, _ string) ([]store.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.docs, nil
}

type fakeGraphStore struct {
	graph        graph.Graph
	subgraph     graph.Graph
	lastEntity   string
	lastDepth    int
	graphErr error
}

func (f *fakeGraphStore) Graph(_ context.Context, _ string) (graph.Graph, error) {
	return f.graph, f.graphErr
}

func (f *fakeGraphStore) Subgraph(_ context.Context, _ string, entity string, depth int) (graph.Graph, error) {
	f.lastEntity = entity
	f.lastDepth = depth
	return f.subgraph, nil
}

type fakeImageReader struct {
	text string
	err  error
}

func (f *fakeImageReader) ExtractImageText(_ context.Context, _ []byte, _ string) (string, error) {
	return f.text, f.err
}

type serverFixture struct {
	pipeline *fakePipeline
	chunks   *fakeChunkStore
	graphs   *fakeGraphStore
	images   *fakeImageReader
	handler  http.Handler
}

// newFixture builds a server in header-auth mode unless a verifier is
// given.
func newFixture(verifier Verifier) *serverFixture {
	f := &serverFixture{
		pipeline: &fakePipeline{},
		chunks:   &fakeChunkStore{},
		graphs:   &fakeGraphStore{},
		images:   &fakeImageReader{},
	}
	srv := NewServer(f.pipeline, f.chunks, f.graphs, f.images, nil, verifier, nil)
	f.handler = srv.Handler()
	return f
}

// do performs a request with the dev-mode tenant header set.
func (f *serverFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req.Header.Get("X-Tenant-ID") == "" {
		req.Header.Set("X-Tenant-ID", "t1")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

var errBoom = errors.New("boom")
