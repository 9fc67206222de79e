// Package metrics exposes the Prometheus collectors of the API.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	cacheLookups      *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	projectsCompleted prometheus.Counter
	auditFailures     prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_notifications_total",
			Help: "Progress notifications by outcome (delivered, dropped).",
		}, []string{"outcome"}),
		projectsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "projects_auto_completed_total",
			Help: "Projects completed because all of their tasks were done.",
		}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Audit records that could not be written.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.cacheLookups,
		m.notifications,
		m.projectsCompleted,
		m.auditFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// StartRequest marks a request in flight and returns the function that records it.
func (m *Metrics) StartRequest() func(method, path string, status int) {
	if m == nil {
		return func(string, string, int) {}
	}
	m.httpInFlight.Inc()
	start := time.Now()
	return func(method, path string, status int) {
		code := strconv.Itoa(status)
		m.httpRequestDuration.WithLabelValues(method, path, code).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(method, path, code).Inc()
		m.httpInFlight.Dec()
	}
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ProjectAutoCompleted() {
	if m == nil {
		return
	}
	m.projectsCompleted.Inc()
}

func (m *Metrics) AuditFailed() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}
