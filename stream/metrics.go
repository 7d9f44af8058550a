package stream

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/dashstream/metric"
)

// Metrics holds Prometheus metrics for a stream Client.
type Metrics struct {
	status            prometheus.Gauge
	messagesReceived  prometheus.Counter
	messagesSent      prometheus.Counter
	reconnectAttempts prometheus.Counter
	bufferedRecords   prometheus.Gauge
	processingLatency prometheus.Histogram
	errorsTotal       *prometheus.CounterVec
}

// newMetrics creates and registers Client metrics. A nil registry
// disables metrics; every record path nil-checks. All collectors carry
// the client name as a const label, so independent clients can share one
// registry.
func newMetrics(registry *metric.MetricsRegistry, clientName string) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &Metrics{
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "dashstream",
			Subsystem:   "stream",
			Name:        "connection_status",
			Help:        "Connection status (0=disconnected 1=connecting 2=connected 3=error)",
			ConstLabels: prometheus.Labels{"client": clientName},
		}),

		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "dashstream",
			Subsystem:   "stream",
			Name:        "messages_received_total",
			Help:        "Total inbound frames normalized and delivered",
			ConstLabels: prometheus.Labels{"client": clientName},
		}),

		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "dashstream",
			Subsystem:   "stream",
			Name:        "messages_sent_total",
			Help:        "Total outbound messages sent over the transport",
			ConstLabels: prometheus.Labels{"client": clientName},
		}),

		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "dashstream",
			Subsystem:   "stream",
			Name:        "reconnect_attempts_total",
			Help:        "Total reconnection attempts scheduled",
			ConstLabels: prometheus.Labels{"client": clientName},
		}),

		bufferedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "dashstream",
			Subsystem:   "stream",
			Name:        "buffered_records",
			Help:        "Records currently held in the ring buffer",
			ConstLabels: prometheus.Labels{"client": clientName},
		}),

		processingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "dashstream",
			Subsystem:   "stream",
			Name:        "processing_latency_seconds",
			Help:        "Local frame processing time from normalization start to fanout completion",
			Buckets:     []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			ConstLabels: prometheus.Labels{"client": clientName},
		}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "dashstream",
			Subsystem:   "stream",
			Name:        "errors_total",
			Help:        "Total errors by type",
			ConstLabels: prometheus.Labels{"client": clientName},
		}, []string{"type"}),
	}

	if err := registry.RegisterGauge(clientName, "connection_status", m.status); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(clientName, "messages_received", m.messagesReceived); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(clientName, "messages_sent", m.messagesSent); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(clientName, "reconnect_attempts", m.reconnectAttempts); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(clientName, "buffered_records", m.bufferedRecords); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(clientName, "processing_latency", m.processingLatency); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(clientName, "errors_total", m.errorsTotal); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordStatus(s Status) {
	if m == nil {
		return
	}
	m.status.Set(statusValue(s))
}

func (m *Metrics) recordReceived() {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
}

func (m *Metrics) recordSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

func (m *Metrics) recordReconnect() {
	if m == nil {
		return
	}
	m.reconnectAttempts.Inc()
}

func (m *Metrics) recordBufferSize(n int) {
	if m == nil {
		return
	}
	m.bufferedRecords.Set(float64(n))
}

func (m *Metrics) recordLatency(seconds float64) {
	if m == nil {
		return
	}
	m.processingLatency.Observe(seconds)
}

func (m *Metrics) recordError(errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(errorType).Inc()
}
