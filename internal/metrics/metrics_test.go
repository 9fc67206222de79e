package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.StartRequest()("GET", "/", 200)
		m.CacheLookup("hit")
		m.Notification("dropped")
		m.ProjectAutoCompleted()
		m.AuditFailed()
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.CacheLookup("hit")
	m.CacheLookup("hit")
	m.CacheLookup("miss")
	m.ProjectAutoCompleted()
	m.Notification("delivered")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.projectsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("delivered")))
}

func TestRequestInstrumentationAndHandler(t *testing.T) {
	m := New()

	done := m.StartRequest()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done("GET", "/api/projects", 200)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/projects", "200")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}
