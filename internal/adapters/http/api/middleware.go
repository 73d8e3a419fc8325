package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/flagmatch/pkg/metrics"
)

// Route names, used as the endpoint metric label.
const (
	routeHealth    = "healthz"
	routeMetrics   = "metrics"
	routeStats     = "stats"
	routeState     = "state"
	routeStateWait = "state_wait"
	routeSelect    = "select"
	routeReset     = "reset"
)

// MetricsMiddleware records count, latency and error class per route.
// A GET /state carrying ?after= is labelled state_wait: it blocks for up to
// the long-poll window and would otherwise swamp the state latency.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		label := routeLabel(endpoint, r)
		ms := float64(time.Since(start).Microseconds()) / 1000
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(label, r.Method, code)
		metrics.RecordHTTPRequestDuration(label, r.Method, code, ms)

		if class, severity, failed := classify(rec.status); failed {
			metrics.RecordErrorByEndpoint(label, r.Method, class)
			metrics.RecordErrorByType(class, severity)
			metrics.RecordErrorLatency("http", class, ms)
		}
	}
}

func routeLabel(endpoint string, r *http.Request) string {
	if endpoint == routeState && r.URL.Query().Has("after") {
		return routeStateWait
	}
	return endpoint
}

// classify maps a response status onto the error codes the game routes
// return, so error metrics and response bodies agree.
func classify(status int) (class, severity string, failed bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", "", false
	case status == http.StatusTooManyRequests:
		return "backpressure", "medium", true
	case status == http.StatusServiceUnavailable:
		return "unavailable", "medium", true
	case status == http.StatusNotFound:
		return "not_found", "low", true
	case status >= http.StatusInternalServerError:
		return "internal", "high", true
	default:
		return "bad_request", "low", true
	}
}

// statusRecorder keeps the first status written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b) //nolint:wrapcheck // pass-through writer
}
