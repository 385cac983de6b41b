package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uistream"

// Connection states reported by the transport.
var connectionStates = []string{"idle", "connecting", "open", "closed"}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics (view API)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Transport metrics
	ConnectionState   *prometheus.GaugeVec
	ReconnectAttempts prometheus.Counter
	ReconnectDelay    prometheus.Histogram
	ReconnectExhausts prometheus.Counter
	SendsDropped      *prometheus.CounterVec

	// Router metrics
	FramesRouted  *prometheus.CounterVec
	FramesDropped *prometheus.CounterVec

	// Store metrics
	CollectionSizes *prometheus.GaugeVec

	// Signer metrics
	SignerCalls    *prometheus.CounterVec
	SignerDuration prometheus.Histogram

	// View stream metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	State             string  `json:"state"`
	FramesRouted      int64   `json:"frames_routed"`
	FramesDropped     int64   `json:"frames_dropped"`
	Reconnects        int64   `json:"reconnects"`
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on its own registry, so more than
// one can exist in a process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),
		snapshot:  MetricsSnapshot{State: "idle"},

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Transport metrics
		ConnectionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "transport_state",
				Help:      "1 for the transport's current connection state, 0 otherwise",
			},
			[]string{"state"},
		),
		ReconnectAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transport_reconnects_total",
				Help:      "Total number of scheduled reconnect attempts",
			},
		),
		ReconnectDelay: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transport_reconnect_delay_seconds",
				Help:      "Backoff delay before each reconnect attempt",
				Buckets:   []float64{.5, 1, 2, 4, 8, 16, 32},
			},
		),
		ReconnectExhausts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transport_reconnect_exhausted_total",
				Help:      "Times the transport gave up after the attempt cap",
			},
		),
		SendsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transport_sends_dropped_total",
				Help:      "Outbound messages dropped instead of sent",
			},
			[]string{"reason"},
		),

		// Router metrics
		FramesRouted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_routed_total",
				Help:      "Envelopes dispatched to the store, by kind",
			},
			[]string{"kind"},
		),
		FramesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_dropped_total",
				Help:      "Inbound frames dropped without a mutation, by reason",
			},
			[]string{"reason"},
		),

		// Store metrics
		CollectionSizes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_collection_size",
				Help:      "Current number of entries per store collection",
			},
			[]string{"collection"},
		),

		// Signer metrics
		SignerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signer_calls_total",
				Help:      "Connection URL signing calls",
			},
			[]string{"status"},
		),
		SignerDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "signer_duration_seconds",
				Help:      "Connection URL signing latency",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		// View stream metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "view_stream_connections",
				Help:      "Number of connected view stream clients",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "view_stream_messages_total",
				Help:      "Messages pushed to view stream clients",
			},
			[]string{"type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	m.SetConnectionState("idle")
	return m
}

// Registry returns the registry every metric is registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SetConnectionState marks state as the transport's current state.
func (m *Metrics) SetConnectionState(state string) {
	for _, s := range connectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.ConnectionState.WithLabelValues(s).Set(v)
	}
	m.mu.Lock()
	m.snapshot.State = state
	m.mu.Unlock()
}

// RecordReconnect records a scheduled reconnect attempt.
func (m *Metrics) RecordReconnect(attempt int, delay time.Duration) {
	m.ReconnectAttempts.Inc()
	m.ReconnectDelay.Observe(delay.Seconds())
	m.mu.Lock()
	m.snapshot.Reconnects++
	m.mu.Unlock()
}

// RecordReconnectExhausted records the transport giving up.
func (m *Metrics) RecordReconnectExhausted() {
	m.ReconnectExhausts.Inc()
}

// RecordSendDropped records an outbound message that was not sent.
func (m *Metrics) RecordSendDropped(reason string) {
	m.SendsDropped.WithLabelValues(reason).Inc()
}

// RecordFrameRouted records an envelope that reached the store.
func (m *Metrics) RecordFrameRouted(kind string) {
	m.FramesRouted.WithLabelValues(kind).Inc()
	m.mu.Lock()
	m.snapshot.FramesRouted++
	m.mu.Unlock()
}

// RecordFrameDropped records an inbound frame that produced no mutation.
func (m *Metrics) RecordFrameDropped(reason string) {
	m.FramesDropped.WithLabelValues(reason).Inc()
	m.mu.Lock()
	m.snapshot.FramesDropped++
	m.mu.Unlock()
}

// CollectionSize publishes a store collection size.
func (m *Metrics) CollectionSize(collection string, size int) {
	m.CollectionSizes.WithLabelValues(collection).Set(float64(size))
}

// RecordSignerCall records one signing call.
func (m *Metrics) RecordSignerCall(status string, duration time.Duration) {
	m.SignerCalls.WithLabelValues(status).Inc()
	m.SignerDuration.Observe(duration.Seconds())
}

// RecordWSMessage records a message pushed to a view stream client
func (m *Metrics) RecordWSMessage(msgType string) {
	m.WSMessages.WithLabelValues(msgType).Inc()
}

// IncWSConnections increments view stream connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements view stream connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON health endpoint.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
