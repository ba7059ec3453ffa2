package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes the request logger to one handler operation and tags it
// with the session and range addressed by the route.
func handlerLogger(r *http.Request, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(r.Context())
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := []any{"handler", handlerName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if id := chi.URLParam(r, "sessionID"); id != "" {
		pairs = append(pairs, "session_id", id)
	}
	if id := chi.URLParam(r, "rangeID"); id != "" {
		pairs = append(pairs, "range_id", id)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
