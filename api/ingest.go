package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/substrat-dev/ragd/internal/extract"
	"github.com/substrat-dev/ragd/internal/log"
	"github.com/substrat-dev/ragd/internal/rag"
	"github.com/substrat-dev/ragd/internal/store"
)

// maxUploadBytes caps file uploads.
const maxUploadBytes = 20 << 20

// IngestHandler handles document ingestion endpoints.
type IngestHandler struct {
	pipeline Pipeline
	chunks   ChunkStore
	images   ImageReader
	logger   log.Logger
}

// IngestTextRequest is the body of POST /api/ingest/text.
type IngestTextRequest struct {
	Text     string         `json:"text"`
	Source   string         `json:"source,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IngestResponse reports what an ingestion persisted.
type IngestResponse struct {
	Status             string `json:"status"`
	DocumentID         string `json:"document_id,omitempty"`
	Filename           string `json:"filename,omitempty"`
	Type               string `json:"type"`
	ChunksProcessed    int    `json:"chunks_processed"`
	EntitiesExtracted  int    `json:"entities_extracted"`
	RelationsExtracted int    `json:"relations_extracted"`
	Message            string `json:"message,omitempty"`
}

func (h *IngestHandler) text(w http.ResponseWriter, r *http.Request) {
	var req IngestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	if req.Source != "" {
		metadata["source"] = req.Source
	}
	metadata["type"] = "text"

	res, err := h.pipeline.Ingest(r.Context(), rag.IngestRequest{
		TenantID: tenantFrom(r),
		Text:     req.Text,
		Metadata: metadata,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Status:             "success",
		Type:               "text",
		ChunksProcessed:    res.ChunksProcessed,
		EntitiesExtracted:  res.EntitiesExtracted,
		RelationsExtracted: res.RelationsExtracted,
	})
}

func (h *IngestHandler) file(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "unreadable upload")
		return
	}

	kind, mimeType, err := extract.DetectKind(header.Filename, data)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	tenant := tenantFrom(r)
	var resp IngestResponse

	switch kind {
	case extract.KindText:
		resp, err = h.ingestText(r, tenant, header.Filename, string(data))
	case extract.KindPDF:
		resp, err = h.ingestPDF(r, tenant, header.Filename, data)
	case extract.KindImage:
		resp, err = h.ingestImage(r, tenant, header.Filename, data, mimeType)
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	docID, err := h.chunks.RecordDocument(r.Context(), store.Document{
		TenantID:    tenant,
		Filename:    header.Filename,
		FileType:    string(kind),
		ChunksCount: resp.ChunksProcessed,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp.Status = "success"
	resp.DocumentID = docID.String()
	resp.Filename = header.Filename
	resp.Type = string(kind)
	writeJSON(w, http.StatusOK, resp)
}

func (h *IngestHandler) ingestText(r *http.Request, tenant, filename, text string) (IngestResponse, error) {
	res, err := h.pipeline.Ingest(r.Context(), rag.IngestRequest{
		TenantID: tenant,
		Text:     text,
		Metadata: map[string]any{"source": filename, "type": "text"},
	})
	if err != nil {
		return IngestResponse{}, err
	}
	return IngestResponse{
		ChunksProcessed:    res.ChunksProcessed,
		EntitiesExtracted:  res.EntitiesExtracted,
		RelationsExtracted: res.RelationsExtracted,
	}, nil
}

// ingestPDF ingests page by page so every chunk carries its page number.
func (h *IngestHandler) ingestPDF(r *http.Request, tenant, filename string, data []byte) (IngestResponse, error) {
	pages, err := extract.PDFPages(data)
	if err != nil {
		return IngestResponse{}, err
	}

	var resp IngestResponse
	for _, page := range pages {
		res, err := h.pipeline.Ingest(r.Context(), rag.IngestRequest{
			TenantID: tenant,
			Text:     page.Text,
			Metadata: map[string]any{"source": filename, "page": page.Number, "type": "pdf"},
		})
		if err != nil {
			return IngestResponse{}, fmt.Errorf("page %d: %w", page.Number, err)
		}
		resp.ChunksProcessed += res.ChunksProcessed
		resp.EntitiesExtracted += res.EntitiesExtracted
		resp.RelationsExtracted += res.RelationsExtracted
	}
	return resp, nil
}

func (h *IngestHandler) ingestImage(r *http.Request, tenant, filename string, data []byte, mimeType string) (IngestResponse, error) {
	if h.images == nil {
		return IngestResponse{}, fmt.Errorf("%w: image uploads are disabled", extract.ErrUnsupportedType)
	}

	text, err := h.images.ExtractImageText(r.Context(), data, mimeType)
	if err != nil {
		return IngestResponse{}, fmt.Errorf("reading image text: %w", err)
	}
	if text == "" {
		// An image with no recognizable text is not an error; there is
		// just nothing to index.
		return IngestResponse{Message: "no text found in image"}, nil
	}

	res, err := h.pipeline.Ingest(r.Context(), rag.IngestRequest{
		TenantID: tenant,
		Text:     text,
		Metadata: map[string]any{"source": filename, "type": "image"},
	})
	if err != nil {
		return IngestResponse{}, err
	}
	return IngestResponse{
		ChunksProcessed:    res.ChunksProcessed,
		EntitiesExtracted:  res.EntitiesExtracted,
		RelationsExtracted: res.RelationsExtracted,
	}, nil
}
