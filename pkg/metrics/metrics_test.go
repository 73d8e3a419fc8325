package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// value reads the current value of a counter or gauge.
func value(c prometheus.Metric) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return -1
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register its collectors", func() {
				So(manager, ShouldNotBeNil)
				manager.gamesStarted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})

			Convey("And it should use the default refresh interval", func() {
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(3*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.gamesStarted.Inc()

			Convey("Then metric names should carry namespace, subsystem and prefix", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_ns_test_sub_pfx_games_started_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)
			})
		})

		Convey("When creating with metrics disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(registry))

			Convey("Then nothing is registered but observations do not panic", func() {
				So(func() { manager.gamesStarted.Inc() }, ShouldNotPanic)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})

		Convey("When passing empty option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithRefreshInterval(-1*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "flagmatch")
				So(manager.subsystem, ShouldEqual, "game")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestGameMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording selections", func() {
			before := value(globalManager.selections.WithLabelValues("accepted"))
			RecordSelection(true)
			RecordSelection(true)
			RecordSelection(false)

			Convey("Then accepted and ignored are counted separately", func() {
				So(value(globalManager.selections.WithLabelValues("accepted")), ShouldEqual, before+2)
				So(value(globalManager.selections.WithLabelValues("ignored")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording turn outcomes", func() {
			before := value(globalManager.turnsResolved.WithLabelValues("match"))
			RecordTurnResolved("match")

			Convey("Then the outcome counter increases", func() {
				So(value(globalManager.turnsResolved.WithLabelValues("match")), ShouldEqual, before+1)
			})
		})

		Convey("When updating the current game gauges", func() {
			UpdateCurrentGame(7, 3)

			Convey("Then the gauges reflect the values", func() {
				So(value(globalManager.currentTurn), ShouldEqual, 7)
				So(value(globalManager.currentMatches), ShouldEqual, 3)
			})
		})

		Convey("When recording lifecycle and inbox metrics", func() {
			So(func() {
				RecordGameStarted()
				RecordGameFinished("tie")
				RecordStaleTaskDiscarded()
				RecordDuplicateRequest()
				UpdateInboxSize(3)
				UpdateInboxCapacity(64)
				UpdateInboxUtilization(0.05)
				RecordInboxEnqueue()
				RecordInboxDequeue()
				RecordInboxEnqueueError()
				RecordCommandLatency(0.2)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("/state", "GET", "200")
				RecordHTTPRequestDuration("/state", "GET", "200", 1.5)
				RecordErrorByComponent("inbox", "full")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("/select", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 2.0)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			RecordGameStarted()
			families, err := GetRegistry().Gather()

			Convey("Then it exposes flagmatch metrics only", func() {
				So(err, ShouldBeNil)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "flagmatch_game_"), ShouldBeTrue)
				}
			})
		})
	})
}

func TestOptionsFromConfigValues(t *testing.T) {
	Convey("Given raw configuration values", t, func() {
		Convey("When names carry dashes, dots and capitals", func() {
			m := NewManager(
				WithNamespace(" Flag-Match "),
				WithSubsystem("v2.game"),
				WithMetricPrefix("9lives"),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then they become valid name segments", func() {
				So(m.namespace, ShouldEqual, "flag_match")
				So(m.subsystem, ShouldEqual, "v2_game")
				So(m.metricPrefix, ShouldEqual, "_9lives")
			})
		})

		Convey("When buckets are unsorted, repeated or not positive", func() {
			m := NewManager(
				WithHistogramBuckets([]float64{25, 1, -3, 5, 1, 0}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then only sorted unique positive bounds remain", func() {
				So(m.histogramBuckets, ShouldResemble, []float64{1, 5, 25})
			})
		})

		Convey("When every bucket is unusable", func() {
			m := NewManager(WithHistogramBuckets([]float64{0, -1}), WithPrometheusRegistry(prometheus.NewRegistry()))
			So(m.histogramBuckets, ShouldNotBeEmpty)
			So(m.histogramBuckets[0], ShouldBeGreaterThan, 0)
		})

		Convey("When labels have odd keys", func() {
			m := NewManager(
				WithCustomLabels(map[string]string{"Env": "dev", "team-name": "games", "  ": "dropped"}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then keys are sanitized and blank keys skipped", func() {
				So(m.customLabels, ShouldResemble, map[string]string{"env": "dev", "team_name": "games"})
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global manager is reconfigured", t, func() {
		previous := GetRegistry()
		Reset(func() { Configure() })

		m := Configure(
			WithNamespace("arcade"),
			WithCustomLabels(map[string]string{"env": "test"}),
			WithRefreshInterval(2*time.Second),
		)
		RecordAck("select", "duplicate")
		RecordAck("select", "duplicate")

		Convey("Then the global registry is replaced", func() {
			So(m, ShouldEqual, globalManager)
			So(GetRegistry(), ShouldNotEqual, previous)
			So(RefreshInterval(), ShouldEqual, 2*time.Second)
		})

		Convey("Then recorded acks are exported with the new names and labels", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			var found float64
			for _, f := range families {
				if f.GetName() != "arcade_game_acks_total" {
					continue
				}
				for _, metric := range f.GetMetric() {
					labels := map[string]string{}
					for _, lp := range metric.GetLabel() {
						labels[lp.GetName()] = lp.GetValue()
					}
					if labels["status"] == "duplicate" && labels["env"] == "test" {
						found = metric.GetCounter().GetValue()
					}
				}
			}
			So(found, ShouldEqual, 2)
		})
	})
}
