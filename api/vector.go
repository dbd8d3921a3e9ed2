package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/substrat-dev/ragd/internal/log"
	"github.com/substrat-dev/ragd/internal/store"
)

// VectorHandler handles POST /api/vector/insert, the escape hatch for
// callers that bring their own embeddings.
type VectorHandler struct {
	chunks ChunkStore
	logger log.Logger
}

// VectorInsertRequest is the body of POST /api/vector/insert.
type VectorInsertRequest struct {
	ID        string         `json:"id,omitempty"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// VectorInsertResponse confirms the stored chunk.
type VectorInsertResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func (h *VectorHandler) insert(w http.ResponseWriter, r *http.Request) {
	var req VectorInsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "content is required")
		return
	}

	id := uuid.New()
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "id must be a UUID")
			return
		}
		id = parsed
	}

	err := h.chunks.Insert(r.Context(), store.Chunk{
		ID:        id,
		TenantID:  tenantFrom(r),
		Content:   req.Content,
		Embedding: req.Embedding,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, VectorInsertResponse{Status: "ok", ID: id.String()})
}
