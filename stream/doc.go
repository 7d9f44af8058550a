// Package stream provides the realtime data client for DashStream
// dashboards.
//
// # Overview
//
// A Client maintains a live connection to a remote data feed over one of
// three interchangeable transports, survives disconnects with a bounded
// retry loop, normalizes every inbound frame into a uniform envelope,
// retains recent records in a ring buffer, and fans envelopes out to
// registered subscribers in a deterministic order. Dashboards build on
// this one abstraction regardless of how the data actually arrives.
//
// # Key Features
//
//   - Three transports behind one API: WebSocket, server-sent events, HTTP polling
//   - Automatic reconnection: Bounded flat-delay retry loop
//   - Frame normalization: Arrays, typed objects, and bare values become envelopes
//   - Ring buffer: Recent records retained, oldest evicted on overflow
//   - Ordered fanout: Synchronous delivery in registration order, panics isolated
//   - Runtime reconfiguration: Merge-patch updates with live transport switching
//   - Prometheus metrics: Status, throughput, latency, errors by type
//
// # Transports
//
// The transport kind is selected by the Source config field and can be
// switched at runtime via UpdateConfig:
//
//	┌───────────────────┐   persistent-socket   ┌──────────────┐
//	│                   ├── ws(s)://  ◄───────► │              │
//	│      Client       │                       │  Data Feed   │
//	│                   ├── push-stream ◄────── │              │
//	│  buffer + fanout  │   http(s):// (SSE)    │              │
//	│                   ├── polling   ◄──────── │              │
//	└───────────────────┘   http(s):// (GET)    └──────────────┘
//
// persistent-socket is bidirectional: SendData and RequestData reach the
// server, and a heartbeat keepalive runs while connected. push-stream and
// polling are receive-only; sends on them are silently dropped.
//
// A transport failure means different things per kind. Socket and push
// streams die when their connection drops, which feeds the reconnection
// policy. Polling has no connection to lose: a failed poll request is
// counted as an error and the next tick proceeds as scheduled, with the
// client still connected.
//
// # Connection Lifecycle
//
// Status moves through an explicit state machine; illegal transitions are
// dropped:
//
//	             Connect()
//	disconnected ────────► connecting ────────► connected
//	     ▲                  │      ▲               │
//	     │          failure │      │ retry timer   │ connection lost
//	     │                  ▼      │               ▼
//	     └───────────────── error  └────────── disconnected
//	      Disconnect() /            (retry timer pending)
//	      retries exhausted
//
// While establishment keeps failing the client oscillates between error
// and connecting; after a lost established connection it passes through
// disconnected before the retry fires. When the retry budget runs out the
// client settles at error and stays there until the caller connects
// again. Disconnect from any state settles at disconnected.
//
// # Reconnection Logic
//
// Retries are scheduled a fixed ReconnectInterval apart. The delay is
// flat: attempt 7 waits exactly as long as attempt 1, and the counter
// counts scheduled retries, not failures:
//
//	Failure 1: attempts 0 < max → count 1, retry after interval
//	Failure 2: attempts 1 < max → count 2, retry after interval
//	...
//	Failure max+1: attempts = max → give up, status error
//
// With MaxReconnectAttempts 2 and a 100ms interval, a dead endpoint
// reaches error in roughly 200ms having counted exactly 2 attempts.
// A fresh successful connection resets the counter to zero, as does an
// explicit Connect; internal retries never reset it, so the budget is
// per logical connection, not per attempt.
//
// # Frame Normalization
//
// Every raw frame becomes an Envelope by three rules, tried in order:
//
// A JSON array is a batch, one record per element:
//
//	[{"id": 1}, {"id": 2}]
//	→ Envelope{Kind: "batch", Payload: [{"id": 1}, {"id": 2}], Source: "realtime"}
//
// An object carrying both "type" and "data" is a typed envelope; its
// timestamp, source, and metadata fields are honored when present:
//
//	{"type": "update", "data": {"id": 7}, "timestamp": 1704844800000}
//	→ Envelope{Kind: "update", Payload: [{"id": 7}], Source: "realtime"}
//
// Anything else is a single insert wrapping the whole value:
//
//	{"temperature": 23.5}
//	→ Envelope{Kind: "insert", Payload: [{"temperature": 23.5}], Source: "realtime"}
//
// Unparseable frames and frames normalizing to an empty payload are
// counted as errors and dropped; subscribers never see them. An envelope
// that reaches a subscriber always has at least one record.
//
// # Buffering and Fanout
//
// Records from each envelope land in a fixed-capacity ring buffer before
// fanout. When full, the oldest records are evicted:
//
//	Capacity 3: [a, b, c]  ← full
//	Record d arrives
//	Result: [b, c, d]
//
// BufferedData returns a copy of the buffer contents oldest-first;
// ClearBuffer empties it. The buffer feeds late-attaching dashboard
// panels that need recent history at mount time.
//
// Fanout is synchronous on the transport reader goroutine, in subscriber
// registration order. Re-registering an id replaces the handler but
// keeps its position. A panicking subscriber is recovered, counted, and
// isolated; the remaining subscribers still receive the envelope. Frames
// are processed strictly in delivery order because a frame's fanout
// completes before the next frame is read.
//
// # Statistics
//
// Stats returns a point-in-time snapshot:
//
//	{
//	  "status": "connected",
//	  "last_update": "2026-08-25T10:30:00Z",
//	  "messages_received": 1523,
//	  "messages_sent": 12,
//	  "uptime": 3600000000000,
//	  "reconnect_attempts": 0,
//	  "processing_latency": 180000,
//	  "errors": 3
//	}
//
// Uptime is measured from connection-attempt start and reads zero while
// the client is fully down. ProcessingLatency is the last observed local
// frame processing time, not network latency. Counters accumulate across
// reconnects and reset only at construction.
//
// # Configuration
//
//	cfg := stream.Config{
//	    Endpoint:             "wss://feed.example.com/live",
//	    Source:               stream.TransportPersistentSocket,
//	    ReconnectInterval:    5 * time.Second,
//	    MaxReconnectAttempts: 10,
//	    HeartbeatInterval:    30 * time.Second,
//	    DataBufferSize:       1000,
//	}
//
// Runtime updates merge a patch over the current config. An invalid
// result is rejected atomically. Changing the transport kind while
// connected switches immediately, not lazily on the next reconnect:
//
//	socket := stream.TransportPolling
//	err := client.UpdateConfig(stream.ConfigPatch{Source: &socket})
//
// # Metrics
//
// Prometheus metrics exposed (namespace dashstream, subsystem stream):
//
//	dashstream_stream_connection_status{client} - Connection status gauge (0-3)
//	dashstream_stream_messages_received_total{client} - Frames normalized and delivered
//	dashstream_stream_messages_sent_total{client} - Outbound sends accepted
//	dashstream_stream_reconnect_attempts_total{client} - Scheduled retries
//	dashstream_stream_buffered_records{client} - Current ring buffer occupancy
//	dashstream_stream_processing_latency_seconds{client} - Frame processing histogram
//	dashstream_stream_errors_total{client,type} - Errors by type
//
// # Error Handling
//
// Errors are classified using the DashStream error framework:
//
//   - Invalid: Bad configuration, malformed frames
//   - Transient: Dial failures, read errors, poll failures
//   - Fatal: Construction failures
//
// After construction the client is error-swallowing on purpose: runtime
// failures feed status transitions and the error counters instead of
// propagating to callers. Error types counted include connect_failed,
// connection_lost, malformed_frame, poll_request, subscriber_panic,
// heartbeat, marshal, and send.
//
// # Thread Safety
//
// All public methods are safe for concurrent use. Disconnect is
// idempotent and may be called from within a subscriber callback during
// fanout. A torn-down connection cannot act on the client afterwards:
// late frames, timers, and handler callbacks from a previous transport
// are dropped at an internal epoch gate.
//
// # Integration Example
//
//	import (
//	    "github.com/c360/dashstream/metric"
//	    "github.com/c360/dashstream/stream"
//	)
//
//	registry := metric.NewMetricsRegistry()
//
//	cfg := stream.DefaultConfig()
//	cfg.Endpoint = "wss://feed.example.com/live"
//
//	client, err := stream.New(cfg,
//	    stream.WithName("orders-feed"),
//	    stream.WithMetrics(registry),
//	)
//	if err != nil {
//	    return err
//	}
//
//	client.Subscribe("orders-panel", func(env stream.Envelope) {
//	    render(env.Payload)
//	})
//
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Disconnect()
//
//	client.RequestData(stream.Request{Source: "orders", BatchSize: 50})
//
// # See Also
//
//   - relay: Bridges client envelopes onto NATS subjects
//   - pkg/buffer: Generic ring buffer backing the record history
//   - metric: Metrics registry and Prometheus integration
//   - errors: Error classification framework
package stream
