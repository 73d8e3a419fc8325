package api

import (
	"net/http"

	"github.com/okian/flagmatch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider reports service counters. The "started" key tells whether
// the session loop is running.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

type healthResponse struct {
	Status        string `json:"status"`
	Started       bool   `json:"started"`
	GameID        string `json:"game_id,omitempty"`
	Version       uint64 `json:"version"`
	InboxLength   int    `json:"inbox_length"`
	PendingTimers int    `json:"pending_timers"`
}

// StatusHandler serves the health, stats and metrics routes.
type StatusHandler struct {
	stats StatsProvider
}

// NewStatusHandler creates a status handler. A nil provider reports the
// session as stopped.
func NewStatusHandler(stats StatsProvider) *StatusHandler {
	return &StatusHandler{stats: stats}
}

func (h *StatusHandler) snapshot() map[string]interface{} {
	if h.stats == nil {
		return map[string]interface{}{"started": false}
	}
	if s := h.stats.GetStats(); s != nil {
		return s
	}
	return map[string]interface{}{"started": false}
}

// HandleHealth handles GET /healthz. It answers 200 while the session loop
// runs and 503 once it has stopped or before it started.
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	s := h.snapshot()
	resp := healthResponse{Status: "stopped"}
	resp.Started, _ = s["started"].(bool)
	resp.GameID, _ = s["gameId"].(string)
	resp.Version, _ = s["version"].(uint64)
	resp.InboxLength, _ = s["inboxLength"].(int)
	resp.PendingTimers, _ = s["pendingTimers"].(int)

	status := http.StatusServiceUnavailable
	if resp.Started {
		resp.Status = "ok"
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// HandleStats handles GET /stats.
func (h *StatusHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

// HandleMetrics handles GET /metrics. The registry is looked up per request
// since metrics.Configure may replace it after routes are registered.
func (h *StatusHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
