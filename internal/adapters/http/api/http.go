// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/flagmatch/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Select chooses a card. A repeated requestID is a duplicate.
	Select(ctx context.Context, requestID, uid string) (types.Ack, error)

	// Reset deals a new game.
	Reset(ctx context.Context, requestID string) (types.Ack, error)

	// State returns the current view; WaitState blocks until the view
	// version moves past after.
	State(ctx context.Context) (types.StateView, error)
	WaitState(ctx context.Context, after uint64) (types.StateView, error)
}

// Server wires HTTP routes for the game API.
type Server struct {
	statusHandler *StatusHandler
	gameHandler   *GameHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...GameOption) *Server {
	return &Server{
		statusHandler: NewStatusHandler(statsProvider),
		gameHandler:   NewGameHandler(deps, opts...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.statusHandler.HandleHealth, routeHealth))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statusHandler.HandleStats, routeStats))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.statusHandler.HandleMetrics, routeMetrics))
	mux.HandleFunc("/state", MetricsMiddleware(s.gameHandler.HandleState, routeState))
	mux.HandleFunc("/select", MetricsMiddleware(s.gameHandler.HandleSelect, routeSelect))
	mux.HandleFunc("/reset", MetricsMiddleware(s.gameHandler.HandleReset, routeReset))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
