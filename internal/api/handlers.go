package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ryzom/shardstatus/internal/logger"
	"github.com/ryzom/shardstatus/internal/poller"
	"github.com/ryzom/shardstatus/internal/shard"
	"github.com/ryzom/shardstatus/internal/storage"
)

const unavailable = "status unavailable"

// StatusResponse is the payload of GET /api/status
type StatusResponse struct {
	Servers   []shard.Record `json:"servers"`
	UpdatedAt time.Time      `json:"updatedAt"`
	LastError string         `json:"lastError,omitempty"`
}

type Handlers struct {
	fetcher poller.Fetcher
	poller  *poller.Poller
	storage storage.Storage
}

// NewHandlers creates API handlers. p and store may be nil; the endpoints
// that need them then answer 503.
func NewHandlers(fetcher poller.Fetcher, p *poller.Poller, store storage.Storage) *Handlers {
	return &Handlers{
		fetcher: fetcher,
		poller:  p,
		storage: store,
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetStatus returns the last shard report
// GET /api/status
// GET /api/status?live=1 fetches the feed synchronously
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	if live, _ := strconv.ParseBool(r.URL.Query().Get("live")); live {
		h.getLiveStatus(w, r)
		return
	}

	if h.poller == nil {
		h.writeError(w, http.StatusServiceUnavailable, unavailable)
		return
	}

	st := h.poller.Status()
	if !st.HasReport {
		h.writeError(w, http.StatusServiceUnavailable, unavailable)
		return
	}

	h.writeJSON(w, StatusResponse{
		Servers:   st.Report[:],
		UpdatedAt: st.UpdatedAt,
		LastError: st.LastError,
	})
}

func (h *Handlers) getLiveStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.fetcher.Fetch(r.Context())
	if err != nil {
		var fe *shard.FetchError
		if errors.As(err, &fe) {
			logger.Warn("Live status fetch failed", "url", fe.URL, "status_code", fe.StatusCode, "error", fe.Err)
		}
		h.writeError(w, http.StatusBadGateway, unavailable)
		return
	}

	h.writeJSON(w, StatusResponse{
		Servers:   report[:],
		UpdatedAt: time.Now(),
	})
}

// GetPollerState returns fetch bookkeeping without the report
// GET /api/status/poller
func (h *Handlers) GetPollerState(w http.ResponseWriter, r *http.Request) {
	if h.poller == nil {
		h.writeError(w, http.StatusServiceUnavailable, "poller disabled")
		return
	}
	h.writeJSON(w, h.poller.Status())
}

// GetServerHistory returns the last N states of a shard
// GET /api/servers/{name}/history?count=100
func (h *Handlers) GetServerHistory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "server name required")
		return
	}
	if h.storage == nil {
		h.writeError(w, http.StatusServiceUnavailable, "history disabled")
		return
	}

	count := 100
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		if c, err := strconv.Atoi(countStr); err == nil && c > 0 {
			count = c
		}
	}

	history, err := h.storage.GetLatest(name, count)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, history)
}

// GetServerHistoryRange returns shard history for a period
// GET /api/servers/{name}/history/range?from=...&to=...
func (h *Handlers) GetServerHistoryRange(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "server name required")
		return
	}
	if h.storage == nil {
		h.writeError(w, http.StatusServiceUnavailable, "history disabled")
		return
	}

	from, to := parseRange(r, time.Hour)

	history, err := h.storage.GetHistory(name, from, to)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, history)
}

// ExportHistory writes history as CSV or JSON
// GET /api/history/export?format=csv&server=...&from=...&to=...
func (h *Handlers) ExportHistory(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.writeError(w, http.StatusServiceUnavailable, "history disabled")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		h.writeError(w, http.StatusBadRequest, "format must be csv or json")
		return
	}

	from, to := parseRange(r, 24*time.Hour)

	rows, err := h.storage.Observations(r.URL.Query().Get("server"), from, to)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="shard_history.csv"`)
		err = storage.ExportCSV(w, rows)
	} else {
		w.Header().Set("Content-Type", "application/json")
		err = storage.ExportJSON(w, rows)
	}
	if err != nil {
		logger.Error("History export failed", "format", format, "error", err)
	}
}

// Health answers liveness probes
// GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// parseRange reads RFC3339 from/to, defaulting to the last window.
func parseRange(r *http.Request, window time.Duration) (time.Time, time.Time) {
	to := time.Now()
	from := to.Add(-window)

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			from = t
		}
	}

	if toStr := r.URL.Query().Get("to"); toStr != "" {
		if t, err := time.Parse(time.RFC3339, toStr); err == nil {
			to = t
		}
	}

	return from, to
}
