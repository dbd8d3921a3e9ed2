package api

import (
	"net/http"
	"strconv"

	"github.com/substrat-dev/ragd/internal/log"
)

// GraphHandler handles GET /api/graph.
type GraphHandler struct {
	graphs GraphStore
	logger log.Logger
}

// read returns the tenant's whole graph, or the neighborhood of
// ?entity=X bounded by ?depth=N.
func (h *GraphHandler) read(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	entity := r.URL.Query().Get("entity")

	if entity == "" {
		g, err := h.graphs.Graph(r.Context(), tenant)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
		return
	}

	depth := 1
	if raw := r.URL.Query().Get("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "validation_error", "depth must be a positive integer")
			return
		}
		depth = parsed
	}

	g, err := h.graphs.Subgraph(r.Context(), tenant, entity, depth)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
