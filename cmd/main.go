package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/flagmatch/internal/adapters/http/api"
	"github.com/okian/flagmatch/internal/adapters/http/site"
	"github.com/okian/flagmatch/internal/adapters/http/swagger"
	app "github.com/okian/flagmatch/internal/app"
	"github.com/okian/flagmatch/internal/config"
	"github.com/okian/flagmatch/internal/domain/turn"
	"github.com/okian/flagmatch/pkg/logger"
	"github.com/okian/flagmatch/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants. WriteTimeout covers the /state long-poll.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 35 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	longPollWindow            = 25 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Re-initialize with the configured format, then apply the level.
	_ = logger.Init(logger.WithFormat(cfg.LogFormat))
	loggerInstance := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metricOpts, err := metricsOptions(cfg)
	if err != nil {
		loggerInstance.Error(ctx, "invalid metrics config", logger.Error(err))
		return
	}
	metrics.Configure(metricOpts...)

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		_, _ = os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService builds the game service from configuration.
func newService(cfg *config.Config, l logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(l),
		app.WithInboxSize(cfg.InboxSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithPlayerNames(cfg.PlayerOne, cfg.PlayerTwo),
		app.WithImageBase(cfg.FlagImageBase),
		app.WithSeed(cfg.ShuffleSeed),
		app.WithDelays(turn.Delays{
			MatchSettle:    cfg.MatchDelay(),
			MismatchReveal: cfg.MismatchReveal(),
			MismatchHide:   cfg.MismatchHide(),
		}),
	)
}

// metricsOptions maps the metrics settings onto manager options.
func metricsOptions(cfg *config.Config) ([]metrics.Option, error) {
	labels, err := cfg.MetricsLabelMap()
	if err != nil {
		return nil, err
	}
	return []metrics.Option{
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithMetricPrefix(cfg.MetricsPrefix),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
		metrics.WithCustomLabels(labels),
	}, nil
}

// newMux registers the page, the API docs and the game API.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithLongPoll(longPollWindow)).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics copies service stats into gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if inboxLen, ok := stats["inboxLength"].(int); ok {
		metrics.UpdateInboxSize(inboxLen)
	}

	turns, okTurns := stats["totalTurns"].(int)
	matches, okMatches := stats["totalMatches"].(int)
	if okTurns && okMatches {
		metrics.UpdateCurrentGame(turns, matches)
	}
}
