package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authengine/pkg/logger"
)

// Envelope is the body of every JSON response except introspection.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// writeError renders err with its mapped status. Server errors are logged
// with the request context; client errors are logged at debug level.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	code := errorCode(err, status)

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	} else {
		h.logger.DebugContext(r.Context(), "request rejected",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			logger.Error(err),
		)
	}

	writeJSON(w, status, Envelope{Error: &ErrorDetail{
		Code:    code,
		Message: http.StatusText(status),
	}})
}
