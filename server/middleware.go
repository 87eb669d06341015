package server

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/Fuu-choco/zoom-line-bot/core/logger"

	"log/slog"
)

// Recover catches panics in HTTP handlers and prevents the process from crashing.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.HTTP.Error("panic recovered",
					slog.String("event", "http.panic"),
					slog.String("endpoint", r.URL.Path),
					slog.Any("err", rec),
					slog.String("stack", string(debug.Stack())),
				)
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"error": "Internal Server Error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.HTTP.Warn("response encode failed",
			slog.String("event", "http.respond"),
			slog.String("err", err.Error()),
		)
	}
}
