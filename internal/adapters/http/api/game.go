package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/flagmatch/internal/app"
	"github.com/okian/flagmatch/internal/domain/types"
	"github.com/okian/flagmatch/pkg/metrics"
)

const (
	defaultLongPoll = 25 * time.Second
	maxBodyBytes    = 4 << 10
)

type selectRequest struct {
	RequestID string `json:"request_id"`
	UID       string `json:"uid"`
}

func (r selectRequest) validate() error {
	if strings.TrimSpace(r.UID) == "" {
		return errors.New("missing uid")
	}
	return nil
}

type resetRequest struct {
	RequestID string `json:"request_id"`
}

// GameHandler serves the game routes.
type GameHandler struct {
	deps     Dependencies
	longPoll time.Duration
}

// GameOption configures a GameHandler.
type GameOption func(*GameHandler)

// WithLongPoll caps how long GET /state?after=N may block.
func WithLongPoll(d time.Duration) GameOption {
	return func(h *GameHandler) {
		if d > 0 {
			h.longPoll = d
		}
	}
}

// NewGameHandler creates a new game handler.
func NewGameHandler(deps Dependencies, opts ...GameOption) *GameHandler {
	h := &GameHandler{deps: deps, longPoll: defaultLongPoll}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleState handles GET /state. With ?after=N it waits until the view
// version exceeds N or the long-poll window closes.
func (h *GameHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_state"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	raw := r.URL.Query().Get("after")
	if raw == "" {
		v, err := h.deps.State(r.Context())
		if err != nil {
			h.fail(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
		return
	}

	after, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.longPoll)
	defer cancel()
	v, err := h.deps.WaitState(ctx, after)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleSelect handles POST /select.
func (h *GameHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_select"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req selectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.Select(r.Context(), req.RequestID, req.UID)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	h.acknowledge(w, routeSelect, ack)
}

// HandleReset handles POST /reset. The body is optional.
func (h *GameHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	// An empty body, chunked or not, is a reset without a request id.
	var req resetRequest
	if err := decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.Reset(r.Context(), req.RequestID)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	h.acknowledge(w, routeReset, ack)
}

// acknowledge writes ack and counts it by route and status.
func (h *GameHandler) acknowledge(w http.ResponseWriter, route string, ack types.Ack) {
	metrics.RecordAck(route, ack.Status)
	writeJSON(w, http.StatusOK, ack)
}

func (h *GameHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrStopped),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
