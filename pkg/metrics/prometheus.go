// Package metrics provides Prometheus metrics for the flagmatch game server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Game metrics
	selections          *prometheus.CounterVec
	turnsResolved       *prometheus.CounterVec
	gamesStarted        prometheus.Counter
	gamesFinished       *prometheus.CounterVec
	staleTasksDiscarded prometheus.Counter
	duplicateRequests   prometheus.Counter
	currentTurn         prometheus.Gauge
	currentMatches      prometheus.Gauge

	// Inbox metrics
	inboxSize        prometheus.Gauge
	inboxCapacity    prometheus.Gauge
	inboxUtilization prometheus.Gauge
	inboxEnqueued    prometheus.Counter
	inboxDequeued    prometheus.Counter
	inboxErrors      prometheus.Counter

	// Worker metrics
	commandLatency prometheus.Histogram
	workerErrors   prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	acks                *prometheus.CounterVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager from opts on a fresh registry, which
// GetRegistry returns from then on. It is not safe to call while other
// goroutines record metrics; call it once at startup.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, WithPrometheusRegistry(registry))

	customRegistry = registry
	globalManager = NewManager(all...)
	return globalManager
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "flagmatch",
		subsystem:        "game",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus collectors.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)
	if !m.enabled {
		// unregistered collectors still accept observations
		auto = promauto.With(nil)
	}
	labels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	counterVec := func(name, help string, keys ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, keys)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
			Buckets: m.histogramBuckets,
		})
	}
	histogramVec := func(name, help string, keys ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
			Buckets: m.histogramBuckets,
		}, keys)
	}

	m.selections = counterVec("selections_total", "Card selections by result (accepted, ignored)", "result")
	m.turnsResolved = counterVec("turns_resolved_total", "Resolved turns by outcome (match, mismatch)", "outcome")
	m.gamesStarted = counter("games_started_total", "Games started or reset")
	m.gamesFinished = counterVec("games_finished_total", "Finished games by result (player_one, player_two, tie)", "result")
	m.staleTasksDiscarded = counter("stale_tasks_discarded_total", "Deferred resolutions dropped because the game was reset")
	m.duplicateRequests = counter("duplicate_requests_total", "Client requests acknowledged as duplicates")
	m.currentTurn = gauge("current_turn", "Turns played in the current game")
	m.currentMatches = gauge("current_matches", "Pairs found in the current game")

	m.inboxSize = gauge("inbox_size", "Commands waiting in the session inbox")
	m.inboxCapacity = gauge("inbox_capacity", "Capacity of the session inbox")
	m.inboxUtilization = gauge("inbox_utilization_ratio", "Inbox fill ratio (0-1)")
	m.inboxEnqueued = counter("inbox_enqueued_total", "Commands accepted by the inbox")
	m.inboxDequeued = counter("inbox_dequeued_total", "Commands handed to the session worker")
	m.inboxErrors = counter("inbox_enqueue_errors_total", "Commands rejected by the inbox")

	m.commandLatency = histogram("command_latency_milliseconds", "Time spent applying one command")
	m.workerErrors = counter("worker_errors_total", "Commands that failed in the session worker")

	m.httpRequests = counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.acks = counterVec("acks_total", "Acknowledgements returned by the game routes by status (applied, ignored, duplicate)",
		"endpoint", "status")

	m.errorsByComponent = counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = histogramVec("error_latency_milliseconds", "Latency of failed operations", "component", "error_type")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds")
}

// RecordSelection counts a card selection by result.
func RecordSelection(accepted bool) {
	result := "ignored"
	if accepted {
		result = "accepted"
	}
	globalManager.selections.WithLabelValues(result).Inc()
}

// RecordTurnResolved counts a resolved turn by outcome.
func RecordTurnResolved(outcome string) {
	globalManager.turnsResolved.WithLabelValues(outcome).Inc()
}

// RecordGameStarted counts a start or reset.
func RecordGameStarted() {
	globalManager.gamesStarted.Inc()
}

// RecordGameFinished counts a finished game by result.
func RecordGameFinished(result string) {
	globalManager.gamesFinished.WithLabelValues(result).Inc()
}

// RecordStaleTaskDiscarded counts a deferred task dropped after a reset.
func RecordStaleTaskDiscarded() {
	globalManager.staleTasksDiscarded.Inc()
}

// RecordDuplicateRequest counts a request acknowledged as duplicate.
func RecordDuplicateRequest() {
	globalManager.duplicateRequests.Inc()
}

// UpdateCurrentGame sets the turn and match gauges of the running game.
func UpdateCurrentGame(turns, matches int) {
	globalManager.currentTurn.Set(float64(turns))
	globalManager.currentMatches.Set(float64(matches))
}

// UpdateInboxSize sets the number of queued commands.
func UpdateInboxSize(size int) {
	globalManager.inboxSize.Set(float64(size))
}

// UpdateInboxCapacity sets the inbox capacity.
func UpdateInboxCapacity(capacity int) {
	globalManager.inboxCapacity.Set(float64(capacity))
}

// UpdateInboxUtilization sets the inbox fill ratio.
func UpdateInboxUtilization(utilization float64) {
	globalManager.inboxUtilization.Set(utilization)
}

// RecordInboxEnqueue counts an accepted command.
func RecordInboxEnqueue() {
	globalManager.inboxEnqueued.Inc()
}

// RecordInboxDequeue counts a command handed to the worker.
func RecordInboxDequeue() {
	globalManager.inboxDequeued.Inc()
}

// RecordInboxEnqueueError counts a rejected command.
func RecordInboxEnqueueError() {
	globalManager.inboxErrors.Inc()
}

// RecordCommandLatency records how long one command took to apply.
func RecordCommandLatency(latencyMs float64) {
	globalManager.commandLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed command.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordAck counts an acknowledgement returned by a game route.
func RecordAck(endpoint, status string) {
	globalManager.acks.WithLabelValues(endpoint, status).Inc()
}

// RecordErrorByComponent counts an error attributed to a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an error by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval returns how often gauge-style metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}
