package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
	"github.com/kalambet/texcv/internal/session"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

// writeError maps err to a status and writes the error envelope. Upstream
// failures carry the backend status and body.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve *backend.ValidationError
		ie *document.ImportError
		ue *backend.UpstreamError
		ne *backend.NetworkError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ie):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, session.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "%v", err)
	case errors.Is(err, session.ErrBackendUnavailable):
		httpError(w, http.StatusServiceUnavailable, "backend_unavailable", "%v", err)
	case errors.As(err, &ue):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": map[string]any{
				"message": fmt.Sprintf("backend %s failed", ue.Op),
				"type":    "upstream_error",
				"status":  ue.Status,
				"details": ue.Details,
			},
		})
	case errors.As(err, &ne):
		httpError(w, http.StatusBadGateway, "network_error", "%v", err)
	default:
		slog.Error("unhandled request error", "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
