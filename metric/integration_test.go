package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockComponent simulates a component that registers its own metrics,
// the way the stream client and relay do.
type mockComponent struct {
	name    string
	metrics struct {
		envelopesDelivered prometheus.Counter
		queueDepth         prometheus.Gauge
	}
}

func newMockComponent(name string) *mockComponent {
	return &mockComponent{name: name}
}

// RegisterMetrics registers domain-specific metrics for the mock component
func (m *mockComponent) RegisterMetrics(registrar MetricsRegistrar) error {
	m.metrics.envelopesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dashstream",
		Subsystem: "mock_component",
		Name:      "envelopes_delivered_total",
		Help:      "Total number of envelopes delivered",
	})

	err := registrar.RegisterCounter(m.name, "envelopes_delivered_total", m.metrics.envelopesDelivered)
	if err != nil {
		return err
	}

	m.metrics.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashstream",
		Subsystem: "mock_component",
		Name:      "queue_depth",
		Help:      "Current depth of the delivery queue",
	})

	return registrar.RegisterGauge(m.name, "queue_depth", m.metrics.queueDepth)
}

// Deliver simulates activity and updates metrics
func (m *mockComponent) Deliver(envelopes int, queueDepth int) {
	m.metrics.envelopesDelivered.Add(float64(envelopes))
	m.metrics.queueDepth.Set(float64(queueDepth))
}

func TestMetricsIntegration_ComponentRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	component := newMockComponent("widget-feed")

	err := component.RegisterMetrics(registry)
	require.NoError(t, err)

	component.Deliver(10, 5)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	assert.True(t, foundMetrics["dashstream_mock_component_envelopes_delivered_total"],
		"Custom envelopes_delivered metric should be registered")
	assert.True(t, foundMetrics["dashstream_mock_component_queue_depth"],
		"Custom queue_depth metric should be registered")
}

func TestMetricsIntegration_NoDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	component1 := newMockComponent("duplicate-component")
	component2 := newMockComponent("duplicate-component")

	err := component1.RegisterMetrics(registry)
	require.NoError(t, err)

	// Second registration under the same name must be rejected
	err = component2.RegisterMetrics(registry)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMetricsIntegration_CoreAndComponentMetricsSeparate(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	component := newMockComponent("separation-test")
	err := component.RegisterMetrics(registry)
	require.NoError(t, err)

	coreMetrics.RecordServiceStatus("separation-test", 2)
	component.Deliver(5, 3)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	assert.True(t, foundMetrics["dashstream_service_status"],
		"core service status metric should be present")
	assert.True(t, foundMetrics["dashstream_mock_component_envelopes_delivered_total"],
		"component-specific delivered metric should be present")
	assert.True(t, foundMetrics["dashstream_mock_component_queue_depth"],
		"component-specific queue depth metric should be present")
}

func TestMetricsIntegration_MetricsUnregistration(t *testing.T) {
	registry := NewMetricsRegistry()

	component := newMockComponent("unregister-test")

	err := component.RegisterMetrics(registry)
	require.NoError(t, err)

	component.Deliver(1, 1)

	success := registry.Unregister("unregister-test", "envelopes_delivered_total")
	assert.True(t, success, "Unregistration should succeed")

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundAfter := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundAfter[mf.GetName()] = true
	}

	assert.False(t, foundAfter["dashstream_mock_component_envelopes_delivered_total"],
		"Metric should be absent after unregistration")
	assert.True(t, foundAfter["dashstream_mock_component_queue_depth"],
		"Other component metrics should remain")
}

func TestMetricsIntegration_PrometheusNameConflicts(t *testing.T) {
	registry := NewMetricsRegistry()

	// Two differently named components registering the same Prometheus metric
	// names collide at the prometheus level, not at the registry key level.
	component1 := newMockComponent("feed-alpha")
	component2 := newMockComponent("feed-beta")

	err := component1.RegisterMetrics(registry)
	require.NoError(t, err)

	err = component2.RegisterMetrics(registry)
	assert.Error(t, err, "second component should fail due to Prometheus metric name conflict")
	assert.Contains(t, err.Error(), "prometheus conflict")
}
