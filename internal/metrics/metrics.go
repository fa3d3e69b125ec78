// Package metrics exposes the board's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// Board metrics
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edboard_polls_total",
			Help: "Total number of patient snapshot fetches",
		},
		[]string{"outcome"},
	)

	pollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edboard_poll_duration_seconds",
			Help:    "Patient snapshot fetch duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	alarmCells = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edboard_alarm_cells",
			Help: "Number of stage cells currently past budget",
		},
	)

	conductAlarms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edboard_conduct_alarms",
			Help: "Number of observation patients overdue for a conduct decision",
		},
	)

	patientsOnBoard = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edboard_patients_on_board",
			Help: "Number of patients in the last successful snapshot",
		},
	)

	boardStale = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edboard_board_stale",
			Help: "1 when the board is showing data from an earlier fetch",
		},
	)

	preferenceWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edboard_preference_writes_total",
			Help: "Total number of preference saves",
		},
		[]string{"outcome"},
	)

	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RecordPoll records the outcome and duration of one snapshot fetch.
func RecordPoll(outcome string, duration time.Duration) {
	pollsTotal.WithLabelValues(outcome).Inc()
	pollDuration.Observe(duration.Seconds())
}

// RecordBoard records the state of the board after a refresh.
func RecordBoard(patients, alarms, conduct int) {
	patientsOnBoard.Set(float64(patients))
	alarmCells.Set(float64(alarms))
	conductAlarms.Set(float64(conduct))
}

// RecordStale flags whether the board is serving stale data.
func RecordStale(stale bool) {
	if stale {
		boardStale.Set(1)
		return
	}
	boardStale.Set(0)
}

// RecordPreferenceWrite records whether a preference save reached storage.
func RecordPreferenceWrite(persisted bool) {
	outcome := OutcomeOK
	if !persisted {
		outcome = OutcomeError
	}
	preferenceWrites.WithLabelValues(outcome).Inc()
}
