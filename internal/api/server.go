package api

import (
	"net/http"
	"time"

	"github.com/ryzom/shardstatus/internal/logger"
)

// NewServer registers the API routes. metrics may be nil.
func NewServer(h *Handlers, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", h.GetStatus)
	mux.HandleFunc("GET /api/status/poller", h.GetPollerState)
	mux.HandleFunc("GET /api/servers/{name}/history", h.GetServerHistory)
	mux.HandleFunc("GET /api/servers/{name}/history/range", h.GetServerHistoryRange)
	mux.HandleFunc("GET /api/history/export", h.ExportHistory)
	mux.HandleFunc("GET /healthz", h.Health)

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
