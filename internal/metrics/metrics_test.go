package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPoll_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(pollsTotal.WithLabelValues(OutcomeError))
	RecordPoll(OutcomeError, 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(pollsTotal.WithLabelValues(OutcomeError)))
}

func TestRecordBoard_SetsGauges(t *testing.T) {
	RecordBoard(12, 3, 1)
	assert.Equal(t, 12.0, testutil.ToFloat64(patientsOnBoard))
	assert.Equal(t, 3.0, testutil.ToFloat64(alarmCells))
	assert.Equal(t, 1.0, testutil.ToFloat64(conductAlarms))

	RecordStale(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(boardStale))
	RecordStale(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(boardStale))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/stats/{stage}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/stats/{stage}", "418"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/labs", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/stats/{stage}", "418")))
}
