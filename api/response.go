package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/substrat-dev/ragd/internal/extract"
	"github.com/substrat-dev/ragd/internal/log"
	"github.com/substrat-dev/ragd/internal/rag"
	"github.com/substrat-dev/ragd/internal/store"
)

// writeJSON writes a JSON response with the given status code.
// If encoding fails after WriteHeader there is no way to notify the
// client; the error is only logged.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeServiceError maps pipeline errors onto the HTTP error envelope.
// Validation problems carry their message to the client; everything
// else is logged and returned as an opaque 500.
func writeServiceError(w http.ResponseWriter, logger log.Logger, err error) {
	switch {
	case errors.Is(err, rag.ErrValidation),
		errors.Is(err, store.ErrEmptyTenant),
		errors.Is(err, store.ErrDimensionMismatch),
		errors.Is(err, extract.ErrUnsupportedType),
		errors.Is(err, extract.ErrEmptyDocument):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
