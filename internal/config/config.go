// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers an optional YAML file and FLAGMATCH_* environment variables on top.
// - Errors returned from this package wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// InboxSize bounds the session command inbox.
	InboxSize int `koanf:"inbox_size"`

	// DedupeSize bounds how many client request ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// PlayerOne and PlayerTwo are the display names of the two players.
	PlayerOne string `koanf:"player_one"`
	PlayerTwo string `koanf:"player_two"`

	// MatchDelayMS is how long a matched pair stays face up before it settles.
	MatchDelayMS int `koanf:"match_delay_ms"`

	// MismatchRevealMS and MismatchHideMS split the mismatch resolution:
	// both faces stay visible for the first, then flip back after the second.
	MismatchRevealMS int `koanf:"mismatch_reveal_ms"`
	MismatchHideMS   int `koanf:"mismatch_hide_ms"`

	// FlagImageBase is the URL prefix for flag images.
	FlagImageBase string `koanf:"flag_image_base"`

	// ShuffleSeed makes deck order reproducible. Zero seeds from the clock.
	ShuffleSeed int64 `koanf:"shuffle_seed"`

	// MetricsEnabled registers collectors on the /metrics registry. When
	// false the counters still accept observations but are never exported.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace, MetricsSubsystem and MetricsPrefix shape metric
	// names: <namespace>_<subsystem>_<prefix>_<name>.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	MetricsPrefix    string `koanf:"metrics_prefix"`

	// MetricsBuckets overrides latency histogram buckets in milliseconds.
	// From env it is a comma list, e.g. "1,5,25,100".
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsRefreshMS is how often gauges are copied from the session.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`

	// MetricsLabels are constant labels as key=value pairs, e.g. "env=dev".
	MetricsLabels []string `koanf:"metrics_labels"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		InboxSize:        256,
		DedupeSize:       4096,
		PlayerOne:        "Player 1",
		PlayerTwo:        "Player 2",
		MatchDelayMS:     550,
		MismatchRevealMS: 900,
		MismatchHideMS:   400,
		FlagImageBase:    "https://flagcdn.com/w320",
		MetricsEnabled:   true,
		MetricsNamespace: "flagmatch",
		MetricsSubsystem: "game",
		MetricsRefreshMS: 10000,
	}
}

// MatchDelay returns MatchDelayMS as a duration.
func (c *Config) MatchDelay() time.Duration {
	return time.Duration(c.MatchDelayMS) * time.Millisecond
}

// MismatchReveal returns MismatchRevealMS as a duration.
func (c *Config) MismatchReveal() time.Duration {
	return time.Duration(c.MismatchRevealMS) * time.Millisecond
}

// MismatchHide returns MismatchHideMS as a duration.
func (c *Config) MismatchHide() time.Duration {
	return time.Duration(c.MismatchHideMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// MetricsLabelMap parses MetricsLabels. Later duplicates win.
func (c *Config) MetricsLabelMap() (map[string]string, error) {
	labels := make(map[string]string, len(c.MetricsLabels))
	for _, pair := range c.MetricsLabels {
		key, value, ok := strings.Cut(pair, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: metrics label %q is not key=value", ErrInvalidConfig, pair)
		}
		labels[key] = value
	}
	return labels, nil
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.InboxSize <= 0:
		return fmt.Errorf("%w: inbox_size must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.PlayerOne) == "" || strings.TrimSpace(c.PlayerTwo) == "":
		return fmt.Errorf("%w: player names must not be empty", ErrInvalidConfig)
	case c.MatchDelayMS < 0 || c.MismatchRevealMS < 0 || c.MismatchHideMS < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	for _, b := range c.MetricsBuckets {
		if b <= 0 {
			return fmt.Errorf("%w: metrics_buckets must be positive", ErrInvalidConfig)
		}
	}
	if _, err := c.MetricsLabelMap(); err != nil {
		return err
	}
	return nil
}
