package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/flagmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.InboxSize, convey.ShouldEqual, 256)
				convey.So(cfg.MatchDelayMS, convey.ShouldEqual, 550)
				convey.So(cfg.MismatchRevealMS, convey.ShouldEqual, 900)
				convey.So(cfg.MismatchHideMS, convey.ShouldEqual, 400)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FLAGMATCH_ADDR", ":8080")
			_ = os.Setenv("FLAGMATCH_PLAYER_ONE", "Ana")
			_ = os.Setenv("FLAGMATCH_MATCH_DELAY_MS", "10")
			_ = os.Setenv("FLAGMATCH_SHUFFLE_SEED", "42")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PlayerOne, convey.ShouldEqual, "Ana")
				convey.So(cfg.PlayerTwo, convey.ShouldEqual, "Player 2")
				convey.So(cfg.MatchDelayMS, convey.ShouldEqual, 10)
				convey.So(cfg.ShuffleSeed, convey.ShouldEqual, int64(42))
			})
		})

		convey.Convey("When metrics settings come from the environment", func() {
			_ = os.Setenv("FLAGMATCH_METRICS_ENABLED", "false")
			_ = os.Setenv("FLAGMATCH_METRICS_NAMESPACE", "arcade")
			_ = os.Setenv("FLAGMATCH_METRICS_BUCKETS", "1,5,25")
			_ = os.Setenv("FLAGMATCH_METRICS_LABELS", "env=dev,region=eu")
			_ = os.Setenv("FLAGMATCH_METRICS_REFRESH_MS", "2500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then comma lists split into slices", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "arcade")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "game")
				convey.So(cfg.MetricsBuckets, convey.ShouldResemble, []float64{1, 5, 25})
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, []string{"env=dev", "region=eu"})
				convey.So(cfg.MetricsRefreshMS, convey.ShouldEqual, 2500)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
player_two: "Bo"
mismatch_reveal_ms: 300
mismatch_hide_ms: 100
log_format: json
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FLAGMATCH_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.PlayerTwo, convey.ShouldEqual, "Bo")
				convey.So(cfg.MismatchRevealMS, convey.ShouldEqual, 300)
				convey.So(cfg.MismatchHideMS, convey.ShouldEqual, 100)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MatchDelayMS, convey.ShouldEqual, 550)
			})
		})

		convey.Convey("When both file and environment set the same key", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
inbox_size: 32
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FLAGMATCH_CONFIG", tmpFile)
			_ = os.Setenv("FLAGMATCH_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.InboxSize, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("FLAGMATCH_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("FLAGMATCH_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric variable is not a number", func() {
			_ = os.Setenv("FLAGMATCH_INBOX_SIZE", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When addr is empty", func() {
			_ = os.Setenv("FLAGMATCH_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a delay is negative", func() {
			_ = os.Setenv("FLAGMATCH_MISMATCH_REVEAL_MS", "-5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FLAGMATCH_CONFIG",
		"FLAGMATCH_ADDR",
		"FLAGMATCH_INBOX_SIZE",
		"FLAGMATCH_PLAYER_ONE",
		"FLAGMATCH_PLAYER_TWO",
		"FLAGMATCH_MATCH_DELAY_MS",
		"FLAGMATCH_MISMATCH_REVEAL_MS",
		"FLAGMATCH_MISMATCH_HIDE_MS",
		"FLAGMATCH_SHUFFLE_SEED",
		"FLAGMATCH_METRICS_ENABLED",
		"FLAGMATCH_METRICS_NAMESPACE",
		"FLAGMATCH_METRICS_BUCKETS",
		"FLAGMATCH_METRICS_LABELS",
		"FLAGMATCH_METRICS_REFRESH_MS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "flagmatch-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
