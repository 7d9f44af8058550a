// Package metric provides Prometheus-based metrics collection and HTTP server
// for DashStream monitoring and observability.
//
// The package offers a centralized metrics registry managing both core platform
// metrics (service status, errors, NATS health) and custom component metrics
// such as the stream client's connection counters. It includes an HTTP server
// exposing metrics in Prometheus format for monitoring system integration.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Platform-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// This separates infrastructure concerns (core metrics) from application
// concerns (per-component metrics) while providing a unified metrics endpoint.
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop()
//
//	// Record core platform metrics
//	core := registry.CoreMetrics()
//	core.RecordServiceStatus("dashstream", 2)
//	core.RecordNATSStatus(true)
//
// The server exposes Prometheus-formatted metrics at
// http://localhost:9090/metrics and a health check at
// http://localhost:9090/health.
//
// # Core Metrics
//
// The registry automatically registers core platform metrics:
//
//   - Service lifecycle: service_status (0=stopped, 1=starting, 2=running, 3=stopping)
//   - Error tracking: errors_total{service, type}
//   - Health mirroring: health_status{service}
//   - NATS connectivity: nats_connected, nats_reconnects_total
//
// All core metrics use the namespace "dashstream":
//
//   - dashstream_service_status{service="..."}
//   - dashstream_errors_total{service="...",type="..."}
//   - dashstream_nats_connected
//
// # Component Metrics
//
// Components register their own metrics through the MetricsRegistrar
// interface, which enables testing with mock registrars and keeps components
// decoupled from the concrete registry:
//
//	msgCounter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Namespace: "dashstream",
//	    Subsystem: "stream",
//	    Name:      "messages_received_total",
//	    Help:      "Total messages received from the upstream endpoint",
//	})
//	if err := registrar.RegisterCounter("stream-client", "messages_received_total", msgCounter); err != nil {
//	    return err
//	}
//
// Vector variants (RegisterCounterVec, RegisterGaugeVec, RegisterHistogramVec)
// accept labeled metrics for multi-dimensional data. Metrics are tracked per
// component so Unregister can remove them cleanly on component shutdown.
//
// # HTTP Server
//
// The metrics server provides three endpoints:
//
//   - GET / - HTML page with links to metrics and health endpoints
//   - GET /metrics - Prometheus-formatted metrics (path configurable)
//   - GET /health - plain health check response
//
// Start blocks until the server stops; run it in a goroutine and call Stop
// during shutdown. A closed server reports nil from Start rather than
// surfacing http.ErrServerClosed.
//
// # Thread Safety
//
// All registry operations are safe for concurrent use. Registration methods
// use mutex protection, metric recording is lock-free (a Prometheus
// guarantee), and CoreMetrics returns a shared thread-safe instance.
//
// # Error Handling
//
// Registration methods return classified errors for duplicate registrations
// (same component and metric name) and Prometheus-level name conflicts. Both
// are invalid-class errors: retrying cannot succeed, the caller must pick a
// different name or unregister first.
package metric
