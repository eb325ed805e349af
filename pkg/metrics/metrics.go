package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every collector the services emit to.
// A nil *Registry (or nil fields) is safe to call and records nothing.
type Registry struct {
	reg *prometheus.Registry

	HTTP     *HTTPMetrics
	Checkout *OutcomeMetrics
	Payment  *OutcomeMetrics
	Wallet   *OutcomeMetrics
	Jobs     *CronJobMetrics
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:      reg,
		HTTP:     NewHTTPMetrics(reg),
		Checkout: NewOutcomeMetrics(reg, "checkout", "Checkout attempts by outcome."),
		Payment:  NewOutcomeMetrics(reg, "payment_reconciliation", "Gateway callbacks and sweeps by outcome."),
		Wallet:   NewOutcomeMetrics(reg, "wallet_ledger", "Wallet ledger mutations by outcome."),
		Jobs:     NewCronJobMetrics(reg),
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// HTTPMetrics records request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, latency)
	return &HTTPMetrics{requests: requests, latency: latency}
}

func (m *HTTPMetrics) Observe(method, route string, status int, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// OutcomeMetrics counts operations by a free-form outcome label
// (e.g. "completed", "duplicate", "rejected_signature").
type OutcomeMetrics struct {
	total *prometheus.CounterVec
}

func NewOutcomeMetrics(reg prometheus.Registerer, name, help string) *OutcomeMetrics {
	if reg == nil {
		return &OutcomeMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name + "_total",
		Help: help,
	}, []string{"outcome"})
	reg.MustRegister(total)
	return &OutcomeMetrics{total: total}
}

func (m *OutcomeMetrics) Inc(outcome string) {
	if m == nil || m.total == nil {
		return
	}
	m.total.WithLabelValues(normalizeLabel(outcome)).Inc()
}
