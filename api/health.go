package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/substrat-dev/ragd/internal/log"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// liveness returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness returns 200 OK if dependencies are ready, checked by
// pinging the database.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		http.Error(w, "database pool not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.pool.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// HealthReport is the component status payload of GET /api/health.
type HealthReport struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// report returns a per-component health breakdown. Degraded state still
// answers 200 so callers can read the detail.
func (h *HealthHandler) report(w http.ResponseWriter, r *http.Request) {
	rep := HealthReport{Status: "ok", Database: "ok"}

	if h.pool == nil {
		rep.Status = "degraded"
		rep.Database = "not configured"
	} else if err := h.pool.Ping(r.Context()); err != nil {
		h.logger.Error("database health check failed", "error", err)
		rep.Status = "degraded"
		rep.Database = "unreachable"
	}

	writeJSON(w, http.StatusOK, rep)
}
