// Package metrics provides Prometheus metrics for the assistant.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Language model metrics
	LLMCallsTotal   *prometheus.CounterVec
	LLMCallDuration *prometheus.HistogramVec
	RetriesTotal    *prometheus.CounterVec
	FallbacksTotal  *prometheus.CounterVec

	// Pipeline metrics
	IntentsTotal *prometheus.CounterVec
	TurnsTotal   *prometheus.CounterVec
	TurnDuration prometheus.Histogram

	// Transport metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	GrpcRequestsTotal   *prometheus.CounterVec
	GrpcRequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}

	m.LLMCallsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorechat_llm_calls_total",
			Help: "Total number of language model calls",
		},
		[]string{"component", "provider", "status"},
	)

	m.LLMCallDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chorechat_llm_call_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"component", "provider"},
	)

	m.RetriesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorechat_llm_retries_total",
			Help: "Total number of retried language model calls",
		},
		[]string{"component"},
	)

	m.FallbacksTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorechat_fallbacks_total",
			Help: "Total number of deterministic fallbacks taken after model failure",
		},
		[]string{"component"},
	)

	m.IntentsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorechat_intents_total",
			Help: "Classified intents by source",
		},
		[]string{"intent", "source"},
	)

	m.TurnsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorechat_turns_total",
			Help: "Conversation turns handled",
		},
		[]string{"intent", "language"},
	)

	m.TurnDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chorechat_turn_duration_seconds",
			Help:    "Duration of a full conversation turn in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorechat_http_requests_total",
			Help: "Assistant HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	m.GrpcRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorechat_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chorechat_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	return m
}

// ObserveLLMCall records one model call.
func (m *Metrics) ObserveLLMCall(component, provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LLMCallsTotal.WithLabelValues(component, provider, status).Inc()
	m.LLMCallDuration.WithLabelValues(component, provider).Observe(d.Seconds())
}

// IncRetry records a retry by component.
func (m *Metrics) IncRetry(component string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(component).Inc()
}

// IncFallback records a deterministic fallback by component.
func (m *Metrics) IncFallback(component string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(component).Inc()
}

// ObserveIntent records a classification.
func (m *Metrics) ObserveIntent(intent string, fallback bool) {
	if m == nil {
		return
	}
	source := "model"
	if fallback {
		source = "fallback"
	}
	m.IntentsTotal.WithLabelValues(intent, source).Inc()
}

// ObserveTurn records a completed conversation turn.
func (m *Metrics) ObserveTurn(intent, language string, d time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(intent, language).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

// ObserveHTTP records an HTTP response.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// ObserveGrpc records a unary gRPC request.
func (m *Metrics) ObserveGrpc(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}
