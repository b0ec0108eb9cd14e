// Package metrics defines the Prometheus collectors both servers export.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcp_oauth"

// Guard outcomes.
const (
	OutcomeAllowed           = "allowed"
	OutcomeMissingToken      = "missing_token"
	OutcomeInvalidToken      = "invalid_token"
	OutcomeInsufficientScope = "insufficient_scope"
)

// Metrics groups the collectors.
type Metrics struct {
	registry *prometheus.Registry

	guardDecisions     *prometheus.CounterVec
	keysetDiscoveries  *prometheus.CounterVec
	keysetInvalidation prometheus.Counter
	engineRequests     *prometheus.CounterVec
	engineDuration     *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry along
// with the Go and process collectors.
func New(server string) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"server": server}

	m := &Metrics{
		registry: reg,
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "guard_decisions_total",
			Help:        "Resource guard decisions by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		keysetDiscoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "keyset_discoveries_total",
			Help:        "Authorization server metadata discoveries by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		keysetInvalidation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "keyset_invalidations_total",
			Help:        "Cached key set handles dropped after a verification failure.",
			ConstLabels: labels,
		}),
		engineRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "engine_requests_total",
			Help:        "Decision engine calls by operation and returned action.",
			ConstLabels: labels,
		}, []string{"operation", "action"}),
		engineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "engine_request_duration_seconds",
			Help:        "Decision engine call latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "HTTP requests by route and status.",
			ConstLabels: labels,
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	all := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.guardDecisions,
		m.keysetDiscoveries,
		m.keysetInvalidation,
		m.engineRequests,
		m.engineDuration,
		m.httpRequests,
		m.httpDuration,
	}
	for _, c := range all {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) GuardDecision(outcome string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) KeySetDiscovery(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.keysetDiscoveries.WithLabelValues(result).Inc()
}

func (m *Metrics) KeySetInvalidated() {
	if m == nil {
		return
	}
	m.keysetInvalidation.Inc()
}

// EngineRequest records one decision engine call. action is empty when the
// call failed before a response was decoded.
func (m *Metrics) EngineRequest(operation, action string, took time.Duration) {
	if m == nil {
		return
	}
	if action == "" {
		action = "error"
	}
	m.engineRequests.WithLabelValues(operation, action).Inc()
	m.engineDuration.WithLabelValues(operation).Observe(took.Seconds())
}

func (m *Metrics) HTTPRequest(route, method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(took.Seconds())
}
