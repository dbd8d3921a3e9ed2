package api

import (
	"net/http"

	"github.com/substrat-dev/ragd/internal/log"
	"github.com/substrat-dev/ragd/internal/store"
)

// DocumentsHandler handles GET /api/documents.
type DocumentsHandler struct {
	chunks ChunkStore
	logger log.Logger
}

// DocumentsResponse lists the tenant's ingested documents, newest first.
type DocumentsResponse struct {
	Documents []store.Document `json:"documents"`
}

func (h *DocumentsHandler) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.chunks.ListDocuments(r.Context(), tenantFrom(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, DocumentsResponse{Documents: docs})
}
