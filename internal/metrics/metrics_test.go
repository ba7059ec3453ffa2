package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

func TestRecorder_Counters(t *testing.T) {
	t.Parallel()

	rec := New()
	rec.SlotsGenerated(3)
	rec.SlotsGenerated(0)
	rec.ConflictsAnnotated(scheduler.ConflictBatchInternal, 2)
	rec.ConflictsAnnotated(scheduler.ConflictBookedElsewhere, 1)
	rec.SessionsActive(4)

	assert.Equal(t, 3.0, testutil.ToFloat64(rec.slotsGenerated))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.conflicts.WithLabelValues("batch_internal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.conflicts.WithLabelValues("booked_elsewhere")))
	assert.Equal(t, 4.0, testutil.ToFloat64(rec.sessionsActive))
}

func TestRecorder_MiddlewareAndHandler(t *testing.T) {
	t.Parallel()

	rec := New()
	router := chi.NewRouter()
	router.Use(rec.Middleware)
	router.Get("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Method(http.MethodGet, "/metrics", rec.Handler())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	require.Equal(t, http.StatusNotFound, resp.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.requestsTotal.WithLabelValues("GET", "/sessions/{sessionID}", "404")))

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "slotplanner_http_requests_total"))
}
