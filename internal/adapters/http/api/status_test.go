package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/okian/flagmatch/internal/adapters/http/api"
	service "github.com/okian/flagmatch/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

type healthBody struct {
	Status        string `json:"status"`
	Started       bool   `json:"started"`
	GameID        string `json:"game_id"`
	Version       uint64 `json:"version"`
	InboxLength   int    `json:"inbox_length"`
	PendingTimers int    `json:"pending_timers"`
}

func statusMux(stats api.StatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(&mockDependencies{}, stats).Register(context.Background(), mux)
	return mux
}

func TestStatusHandler_Health(t *testing.T) {
	Convey("Given the health route", t, func() {
		Convey("When the session loop is running", func() {
			mux := statusMux(&mockStatsProvider{stats: map[string]interface{}{
				"started":       true,
				"gameId":        "g-7",
				"version":       uint64(12),
				"inboxLength":   2,
				"pendingTimers": 1,
			}})
			w := serve(mux, http.MethodGet, "/healthz", "")

			Convey("Then it reports ok with the loop's state", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				var body healthBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body, ShouldResemble, healthBody{
					Status: "ok", Started: true, GameID: "g-7", Version: 12, InboxLength: 2, PendingTimers: 1,
				})
			})
		})

		Convey("When the session loop has stopped", func() {
			mux := statusMux(&mockStatsProvider{stats: map[string]interface{}{"started": false, "gameId": "g-7"}})
			w := serve(mux, http.MethodGet, "/healthz", "")

			Convey("Then it is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				var body healthBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Status, ShouldEqual, "stopped")
				So(body.Started, ShouldBeFalse)
			})
		})

		Convey("When there is no stats provider", func() {
			w := serve(statusMux(nil), http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(serve(statusMux(nil), http.MethodGet, "/stats", "").Body.String(), ShouldContainSubstring, `"started":false`)
		})

		Convey("When the provider returns no map", func() {
			w := serve(statusMux(&mockStatsProvider{}), http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When the method is not GET or HEAD", func() {
			mux := statusMux(&mockStatsProvider{stats: map[string]interface{}{"started": true}})
			So(serve(mux, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodHead, "/healthz", "").Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestStatusHandler_Metrics(t *testing.T) {
	Convey("Given the metrics route", t, func() {
		mux := statusMux(&mockStatsProvider{stats: map[string]interface{}{"started": true}})

		Convey("When a game request was served first", func() {
			serve(mux, http.MethodGet, "/state", "")
			w := serve(mux, http.MethodGet, "/metrics", "")

			Convey("Then the Prometheus exposition includes it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `flagmatch_game_http_requests_total{endpoint="state"`)
			})
		})

		Convey("When the method is not GET", func() {
			So(serve(mux, http.MethodPost, "/metrics", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMetricsMiddleware_Routes(t *testing.T) {
	Convey("Given a mux wrapped in the metrics middleware", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, api.WithLongPoll(1))

		Convey("When the state is long-polled", func() {
			wait := map[string]string{"endpoint": "state_wait", "method": http.MethodGet, "status_code": "200"}
			plain := map[string]string{"endpoint": "state", "method": http.MethodGet, "status_code": "200"}
			beforeWait, beforePlain := counter("flagmatch_game_http_requests_total", wait), counter("flagmatch_game_http_requests_total", plain)
			serve(mux, http.MethodGet, "/state?after=0", "")

			Convey("Then it is counted apart from plain state reads", func() {
				So(counter("flagmatch_game_http_requests_total", wait), ShouldEqual, beforeWait+1)
				So(counter("flagmatch_game_http_requests_total", plain), ShouldEqual, beforePlain)
			})
		})

		Convey("When the inbox pushes back", func() {
			labels := map[string]string{"endpoint": "select", "method": http.MethodPost, "error_type": "backpressure"}
			before := counter("flagmatch_game_errors_by_endpoint_total", labels)
			deps.selectErr = service.ErrBackpressure
			w := serve(mux, http.MethodPost, "/select", `{"uid":"cn-a"}`)

			Convey("Then the error class matches the response code", func() {
				So(errorCode(w), ShouldEqual, "backpressure")
				So(counter("flagmatch_game_errors_by_endpoint_total", labels), ShouldEqual, before+1)
			})
		})
	})
}
