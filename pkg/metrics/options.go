// Package metrics provides Prometheus metrics for the flagmatch game server.
package metrics

import (
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option applies a configuration option to the Manager. Options take raw
// configuration values; empty or unusable input keeps the default.
type Option func(*Manager)

// WithNamespace sets the first metric name segment.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if n := metricToken(namespace); n != "" {
			m.namespace = n
		}
	}
}

// WithSubsystem sets the second metric name segment.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if n := metricToken(subsystem); n != "" {
			m.subsystem = n
		}
	}
}

// WithMetricPrefix inserts a segment between the subsystem and the name.
func WithMetricPrefix(prefix string) Option {
	return func(m *Manager) {
		if n := metricToken(prefix); n != "" {
			m.metricPrefix = n
		}
	}
}

// WithHistogramBuckets sets the latency buckets in milliseconds. Buckets
// are sorted and deduplicated; non-positive bounds are dropped.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		kept := make([]float64, 0, len(buckets))
		for _, b := range buckets {
			if b > 0 {
				kept = append(kept, b)
			}
		}
		slices.Sort(kept)
		kept = slices.Compact(kept)
		if len(kept) > 0 {
			m.histogramBuckets = kept
		}
	}
}

// WithMetricsEnabled controls whether collectors are registered. Disabled
// collectors still accept observations.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithRefreshInterval sets how often session gauges are refreshed.
func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.refreshInterval = interval
		}
	}
}

// WithCustomLabels adds constant labels to every collector. Keys are
// sanitized to label names; pairs whose key sanitizes to nothing are skipped.
func WithCustomLabels(labels map[string]string) Option {
	return func(m *Manager) {
		keys := make([]string, 0, len(labels))
		for k := range labels {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if name := metricToken(k); name != "" {
				m.customLabels[name] = labels[k]
			}
		}
	}
}

// WithPrometheusRegistry sets the registerer collectors are added to.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// metricToken lowercases s and maps every rune outside [a-z0-9_] to '_'.
// A leading digit gets an underscore so the result is a valid name segment.
func metricToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	out := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
