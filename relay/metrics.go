package relay

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/dashstream/metric"
)

// Metrics holds Prometheus metrics for a Relay.
type Metrics struct {
	enqueuedTotal  prometheus.Counter
	droppedTotal   prometheus.Counter
	publishedTotal prometheus.Counter
	failedTotal    prometheus.Counter
	queueDepth     prometheus.Gauge
	publishLatency prometheus.Histogram
}

// newMetrics creates and registers Relay metrics. A nil registry disables
// metrics; every record path nil-checks. All collectors carry the relay
// name as a const label, so independent relays can share one registry.
func newMetrics(registry *metric.MetricsRegistry, name string) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &Metrics{
		enqueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "dashstream",
			Subsystem:   "relay",
			Name:        "enqueued_total",
			Help:        "Total envelopes accepted from the stream client",
			ConstLabels: prometheus.Labels{"relay": name},
		}),

		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "dashstream",
			Subsystem:   "relay",
			Name:        "dropped_total",
			Help:        "Total envelopes dropped by the queue overflow policy",
			ConstLabels: prometheus.Labels{"relay": name},
		}),

		publishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "dashstream",
			Subsystem:   "relay",
			Name:        "published_total",
			Help:        "Total messages published to the broker",
			ConstLabels: prometheus.Labels{"relay": name},
		}),

		failedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "dashstream",
			Subsystem:   "relay",
			Name:        "failed_total",
			Help:        "Total messages dropped after exhausting publish attempts",
			ConstLabels: prometheus.Labels{"relay": name},
		}),

		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "dashstream",
			Subsystem:   "relay",
			Name:        "queue_depth",
			Help:        "Envelopes currently waiting in the delivery queue",
			ConstLabels: prometheus.Labels{"relay": name},
		}),

		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "dashstream",
			Subsystem:   "relay",
			Name:        "publish_latency_seconds",
			Help:        "Broker publish time per message, retries included",
			Buckets:     []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			ConstLabels: prometheus.Labels{"relay": name},
		}),
	}

	if err := registry.RegisterCounter(name, "enqueued_total", m.enqueuedTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "dropped_total", m.droppedTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "published_total", m.publishedTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "failed_total", m.failedTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(name, "queue_depth", m.queueDepth); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(name, "publish_latency", m.publishLatency); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordEnqueued() {
	if m == nil {
		return
	}
	m.enqueuedTotal.Inc()
}

func (m *Metrics) recordDropped() {
	if m == nil {
		return
	}
	m.droppedTotal.Inc()
}

func (m *Metrics) recordPublished(latencySeconds float64) {
	if m == nil {
		return
	}
	m.publishedTotal.Inc()
	m.publishLatency.Observe(latencySeconds)
}

func (m *Metrics) recordFailed() {
	if m == nil {
		return
	}
	m.failedTotal.Inc()
}

func (m *Metrics) recordQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
