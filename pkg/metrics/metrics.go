// Package metrics exposes Prometheus metrics for interview calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Call outcomes recorded by Metrics.CallOutcome.
const (
	OutcomeActive          = "active"
	OutcomeTimeout         = "timeout"
	OutcomeConnectionError = "connection_error"
	OutcomeStartError      = "start_error"
	OutcomeRejected        = "rejected"
	OutcomeEnded           = "ended"
)

// Metrics holds the Prometheus collectors for one process. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CallAttempts       prometheus.Counter
	CallOutcomes       *prometheus.CounterVec
	ConnectDuration    prometheus.Histogram
	TranscriptMessages *prometheus.CounterVec
	ActiveCalls        prometheus.Gauge
}

// New creates Metrics registered on a fresh registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "voicelytics"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CallAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_attempts_total",
			Help:      "Call attempts that passed validation",
		}),
		CallOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_outcomes_total",
			Help:      "Call attempt outcomes",
		}, []string{"outcome"}),
		ConnectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_connect_seconds",
			Help:      "Time from call start to the call becoming active",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 6, 8, 10},
		}),
		TranscriptMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_messages_total",
			Help:      "Finalized transcript lines by speaker role",
		}, []string{"role"}),
		ActiveCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_calls",
			Help:      "Calls currently active",
		}),
	}

	registry.MustRegister(
		m.CallAttempts,
		m.CallOutcomes,
		m.ConnectDuration,
		m.TranscriptMessages,
		m.ActiveCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Attempt records a call attempt.
func (m *Metrics) Attempt() {
	if m == nil {
		return
	}
	m.CallAttempts.Inc()
}

// Outcome records how an attempt or call ended.
func (m *Metrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.CallOutcomes.WithLabelValues(outcome).Inc()
}

// Connected records a call becoming active after seconds of connecting.
func (m *Metrics) Connected(seconds float64) {
	if m == nil {
		return
	}
	m.ConnectDuration.Observe(seconds)
	m.ActiveCalls.Inc()
	m.CallOutcomes.WithLabelValues(OutcomeActive).Inc()
}

// Disconnected records an active call ending.
func (m *Metrics) Disconnected() {
	if m == nil {
		return
	}
	m.ActiveCalls.Dec()
	m.CallOutcomes.WithLabelValues(OutcomeEnded).Inc()
}

// Transcript records one finalized transcript line.
func (m *Metrics) Transcript(role string) {
	if m == nil {
		return
	}
	m.TranscriptMessages.WithLabelValues(role).Inc()
}
