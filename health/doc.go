// Package health provides health monitoring for DashStream components
// with thread-safe status tracking, aggregation, and HTTP probes.
//
// The health package tracks the status of individual components (stream
// client, relay, broker connection) and aggregates them into system-wide
// health for dashboards, alerting, and orchestrator probes.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// The three-state model enables nuanced operational responses. A stream
// client mid-reconnect is degraded, not unhealthy: data is delayed but the
// process does not need restarting. A relay whose broker is unreachable
// past its retry budget is unhealthy and should trip readiness.
//
// # Core Components
//
// Status: individual component health containing status level, descriptive
// message, timestamp, optional metrics, and hierarchical sub-statuses.
//
// Monitor: thread-safe tracking for multiple component statuses with
// concurrent read/write access and automatic timestamp management.
//
// Server: HTTP server exposing monitor state on /health, /healthz, and
// /readyz.
//
// # Basic Usage
//
// Creating and tracking component health:
//
//	monitor := health.NewMonitor()
//
//	// Update component health
//	monitor.UpdateHealthy("stream-client", "connected")
//	monitor.UpdateDegraded("stream-client", "reconnecting, attempt 2 of 5")
//	monitor.UpdateUnhealthy("relay", "broker unreachable")
//
//	// Check individual component health
//	if status, exists := monitor.Get("stream-client"); exists {
//	    if status.IsHealthy() {
//	        log.Println("stream client is healthy")
//	    }
//	}
//
// Converting errors to status:
//
//	// nil error yields a healthy status, anything else unhealthy
//	// with the error message sanitized
//	status := health.FromError("stream-client", err)
//	monitor.Update("stream-client", status)
//
// # System-Wide Aggregation
//
// Combining component statuses into a single system indicator:
//
//	systemHealth := monitor.AggregateHealth("dashstream")
//	if systemHealth.IsUnhealthy() {
//	    log.Printf("system unhealthy: %s", systemHealth.Message)
//	}
//
// Aggregation uses worst-case rules:
//   - Any unhealthy component makes the system unhealthy
//   - Any degraded component (with none unhealthy) makes it degraded
//   - All healthy makes it healthy
//
// The aggregate message carries counts ("1 of 3 components unhealthy") so
// a dashboard can show severity without walking sub-statuses.
//
// # Update Hook
//
// A monitor can mirror every status transition into another system, such
// as a metrics registry:
//
//	monitor.SetUpdateHook(func(name string, status Status) {
//	    coreMetrics.RecordHealthStatus(name, status.IsHealthy())
//	})
//
// The hook runs outside the monitor lock, so it may safely call back into
// the monitor.
//
// # HTTP Endpoints
//
// Server exposes three endpoints:
//
//	server := health.NewServer(8081, "dashstream", monitor, logger)
//	go server.Start() // blocks until Stop
//
//	GET /health  - aggregated health as JSON, 503 when unhealthy
//	GET /healthz - liveness, always 200 while the process runs
//	GET /readyz  - readiness, 503 when any component is unhealthy
//
// Degraded counts as ready: a reconnecting stream client still serves
// buffered data, so traffic should not be drained from it.
//
// # Security
//
// Error messages passed through FromError are sanitized before display.
// Transport errors routinely embed endpoint URLs, so sanitization is not
// optional:
//
//	// Original error
//	"dial failed for wss://data.example.com/stream?token=abc123"
//
//	// After sanitization
//	"dial failed for [URL]"
//
// Sanitization patterns:
//   - URLs: http://, https://, nats://, ws://, wss:// -> [URL]
//   - File paths: /path/to/file, C:\path\to\file -> [PATH]
//   - IP addresses: 192.168.1.100 -> [IP]
//   - Ports: :8080 -> [PORT]
//   - Credentials: password=X, token=X, key=X, secret=X -> [REDACTED]
//
// # Thread Safety
//
// All Monitor operations are safe for concurrent use. The Monitor uses an
// RWMutex internally to allow concurrent reads while serializing writes.
// Status objects are immutable: WithMetrics and WithSubStatus return new
// copies rather than modifying the original.
//
// # Error Handling Philosophy
//
// The health package does not return errors from status operations because
// it represents the *result* of error handling, not part of error
// propagation. Components should wrap errors with the dashstream/errors
// package first; FromError then sanitizes the final message for display.
//
// # Design Decisions
//
// Automatic Sanitization: error messages are sanitized by default with no
// opt-out. Over-redacting during debugging is an acceptable cost for never
// leaking an endpoint or credential to a dashboard.
//
// Value-Based Status: Status is a struct, not *Status. Methods return new
// copies, so a status handed to another goroutine cannot be mutated
// underneath it.
//
// Conservative Aggregation: a single unhealthy component marks the whole
// system unhealthy so problems are never masked by healthy neighbors.
package health
