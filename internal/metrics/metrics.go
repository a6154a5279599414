// Package metrics exposes Prometheus collectors for the HTTP server, the proxy and the worker.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tripplan"

// Proxy call outcomes.
const (
	OutcomeOK                = "ok"
	OutcomeFallback          = "fallback"
	OutcomeMissingCredential = "missing_credential"
	OutcomeUpstreamError     = "upstream_error"
	OutcomeError             = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	proxyCalls      *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	expensesCreated prometheus.Counter
	events          *prometheus.CounterVec
}

// New registers every collector on a fresh registry, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		proxyCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_calls_total",
			Help:      "Proxied external calls by action and outcome.",
		}, []string{"action", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of calls to external services.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"action"}),
		expensesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_created_total",
			Help:      "Expenses recorded.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Domain events by type and direction (published, consumed, failed).",
		}, []string{"type", "direction"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.proxyCalls,
		m.upstreamLatency,
		m.expensesCreated,
		m.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveProxy(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.proxyCalls.WithLabelValues(action, outcome).Inc()
	if outcome != OutcomeMissingCredential {
		m.upstreamLatency.WithLabelValues(action).Observe(d.Seconds())
	}
}

func (m *Metrics) ExpenseCreated() {
	if m == nil {
		return
	}
	m.expensesCreated.Inc()
}

func (m *Metrics) Event(eventType, direction string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, direction).Inc()
}
