// Package buffer provides thread-safe circular buffers with configurable overflow policies,
// built-in statistics tracking, and optional Prometheus metrics integration.
//
// # Overview
//
// The buffer package implements fixed-capacity circular buffers for managing data flow
// between producers and consumers. DashStream uses them in two places: the stream
// client's bounded record retention (most recent N records survive overflow) and the
// relay's delivery queue toward NATS. Buffers are generic, thread-safe, and observable
// through always-on statistics and optional metrics.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := buffer.NewCircularBuffer[int](1000)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Write data
//	err = buf.Write(42)
//
//	// Read data
//	value, ok := buf.Read()
//
// With overflow policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[Event](5000,
//		buffer.WithOverflowPolicy[Event](buffer.DropOldest),
//		buffer.WithMetrics[Event](registry, "event_queue"),
//	)
//
// # Overflow Policies
//
// The buffer supports two overflow behaviors when capacity is reached:
//
//   - DropOldest: Remove oldest item to make room (default)
//   - DropNewest: Reject new items when full
//
// DropOldest gives sliding-window semantics: after any number of writes the
// buffer holds exactly the most recent items in arrival order, which is what
// dashboard record retention needs. DropNewest protects a consumer that must
// not lose its backlog, at the cost of rejecting fresh data.
//
// Use WithDropCallback to observe dropped items:
//
//	buf, _ := buffer.NewCircularBuffer[*Task](500,
//		buffer.WithOverflowPolicy[*Task](buffer.DropNewest),
//		buffer.WithDropCallback[*Task](func(t *Task) {
//			log.Printf("dropped task: %s", t.ID)
//		}),
//	)
//
// The callback runs after the buffer lock is released, so it may call back
// into the buffer safely.
//
// # Observability Architecture
//
// The package implements a dual-tracking pattern:
//
// Statistics (always on):
//   - Tracks all operations using atomic counters
//   - Zero configuration required
//   - Available via buf.Stats()
//   - Provides computed values (drop rate, utilization, uptime)
//   - No external dependencies
//
// Prometheus metrics (optional):
//   - Enabled via WithMetrics() option
//   - Exports to Prometheus for time-series monitoring
//   - Includes a component label for instance identification
//   - Standard metric types (Counter, Gauge) under dashstream_buffer_*
//
// Statistics stay independent of Prometheus so they remain available for
// debugging and tests even in minimal deployments; atomic counters are also
// much cheaper to read programmatically than gathering from a registry.
//
// # Snapshot Semantics
//
// Snapshot returns a copy of the buffered items oldest-first without consuming
// them. It is the read path for "show me what the client has retained":
//
//	records := buf.Snapshot()
//	for _, r := range records {
//		render(r)
//	}
//
// The returned slice is independent of the buffer; later writes do not mutate it.
//
// # Thread Safety
//
// All buffer operations are thread-safe for concurrent use:
//   - Multiple producers can write concurrently
//   - Multiple consumers can read concurrently
//   - Statistics use atomic operations (lock-free)
//   - Internal state protected by sync.RWMutex
//
// # Performance Characteristics
//
// Operations:
//   - Write: O(1) constant time
//   - Read: O(1) constant time
//   - ReadBatch: O(n) where n is batch size
//   - Peek: O(1) constant time
//   - Snapshot: O(n) copy of current contents
//
// Memory:
//   - Pre-allocated circular array
//   - No dynamic allocations during Write/Read
//   - Memory usage: capacity * sizeof(T)
//
// # Testing
//
// The package includes unit tests, property-based tests for the sliding-window
// invariant, and benchmarks:
//
//	go test -race ./pkg/buffer
//	go test -bench=. ./pkg/buffer
package buffer
