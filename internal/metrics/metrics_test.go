package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/api/journal/id/{userName}/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/journal/id/alice/"+id, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/journal/id/{userName}/{id}", "404"))
	assert.Equal(t, float64(2), got)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.httpInFlight))
}

func TestRecordOperation(t *testing.T) {
	m := New()
	m.RecordOperation("journal.save", nil)
	m.RecordOperation("journal.save", errors.New("boom"))
	m.RecordOperation("journal.save", nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.operations.WithLabelValues("journal.save", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("journal.save", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOperation("user.save", nil)
		m.FeedConnected(1)
	})
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.FeedConnected(1)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "journal_feed_clients 1"))
}
