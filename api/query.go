package api

import (
	"encoding/json"
	"net/http"

	"github.com/substrat-dev/ragd/internal/log"
	"github.com/substrat-dev/ragd/internal/rag"
)

// QueryHandler handles POST /api/query.
type QueryHandler struct {
	pipeline Pipeline
	logger   log.Logger
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Question    string  `json:"question"`
	TopK        int     `json:"top_k,omitempty"`
	MaxDistance float64 `json:"max_distance,omitempty"`
}

func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	res, err := h.pipeline.Query(r.Context(), rag.QueryRequest{
		TenantID:    tenantFrom(r),
		Question:    req.Question,
		TopK:        req.TopK,
		MaxDistance: req.MaxDistance,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
