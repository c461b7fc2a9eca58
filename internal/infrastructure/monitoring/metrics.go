package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ResponseSize      *prometheus.HistogramVec
	ActiveConnections prometheus.Gauge

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Bridge metrics
	BridgeInvocations  *prometheus.CounterVec
	BridgeDuration     *prometheus.HistogramVec
	BridgeFailures     *prometheus.CounterVec
	BridgeVariant      *prometheus.GaugeVec
	ClassicalFallbacks prometheus.Counter

	startTime time.Time
	snapshot  Snapshot
	mu        sync.RWMutex
}

// Snapshot holds running totals for the JSON endpoint
type Snapshot struct {
	TotalRequests      int64   `json:"total_requests"`
	TotalErrors        int64   `json:"total_errors"`
	ActiveConnections  int64   `json:"active_connections"`
	AverageLatencyMs   float64 `json:"average_latency_ms"`
	BridgeInvocations  int64   `json:"bridge_invocations"`
	BridgeFailures     int64   `json:"bridge_failures"`
	ClassicalFallbacks int64   `json:"classical_fallbacks"`
	Variant            string  `json:"variant"`
	UptimeSeconds      float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics registers all metrics with reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		snapshot:  Snapshot{Variant: "primary"},

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_http_active_requests",
				Help: "Number of in-flight HTTP requests",
			},
		),

		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_service_calls_total",
				Help: "Total number of service tool calls",
			},
			[]string{"service", "tool", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_service_duration_seconds",
				Help:    "Service tool call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 30},
			},
			[]string{"service", "tool"},
		),

		BridgeInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_bridge_invocations_total",
				Help: "Backend invocations by variant and status",
			},
			[]string{"variant", "status"},
		),
		BridgeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_bridge_invocation_duration_seconds",
				Help:    "Backend invocation duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"variant"},
		),
		BridgeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_bridge_failures_total",
				Help: "Bridge failures by kind",
			},
			[]string{"kind"},
		),
		BridgeVariant: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "backend_bridge_variant",
				Help: "Active backend variant (1 = active)",
			},
			[]string{"variant"},
		),
		ClassicalFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_bridge_classical_fallbacks_total",
				Help: "Allocations served by the classical optimizer",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "backend_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	m.BridgeVariant.WithLabelValues("primary").Set(1)
	m.BridgeVariant.WithLabelValues("fallback").Set(0)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// IncActive marks a request in flight
func (m *Metrics) IncActive() {
	m.ActiveConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecActive marks a request finished
func (m *Metrics) DecActive() {
	m.ActiveConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// RecordServiceCall records a service tool call
func (m *Metrics) RecordServiceCall(service, tool, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, tool, status).Inc()
	m.ServiceDuration.WithLabelValues(service, tool).Observe(duration.Seconds())
}

// RecordInvocation records one backend attempt
func (m *Metrics) RecordInvocation(variant, status string, duration time.Duration) {
	m.BridgeInvocations.WithLabelValues(variant, status).Inc()
	m.BridgeDuration.WithLabelValues(variant).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.BridgeInvocations++
	m.mu.Unlock()
}

// RecordFailure records a bridge failure by kind
func (m *Metrics) RecordFailure(kind string) {
	m.BridgeFailures.WithLabelValues(kind).Inc()

	m.mu.Lock()
	m.snapshot.BridgeFailures++
	m.mu.Unlock()
}

// RecordVariant marks variant as the active backend
func (m *Metrics) RecordVariant(variant string) {
	for _, v := range []string{"primary", "fallback"} {
		if v == variant {
			m.BridgeVariant.WithLabelValues(v).Set(1)
		} else {
			m.BridgeVariant.WithLabelValues(v).Set(0)
		}
	}

	m.mu.Lock()
	m.snapshot.Variant = variant
	m.mu.Unlock()
}

// RecordClassicalFallback counts an allocation served classically
func (m *Metrics) RecordClassicalFallback() {
	m.ClassicalFallbacks.Inc()

	m.mu.Lock()
	m.snapshot.ClassicalFallbacks++
	m.mu.Unlock()
}

// Snapshot returns the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AverageLatencyMs = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
