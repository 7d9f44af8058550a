// Package dashstream provides a realtime data bridge for dashboard
// deployments: live connections to remote data feeds over interchangeable
// transports, normalization of inbound updates, bounded buffering, and
// ordered fanout to in-process subscribers and the platform NATS fabric.
//
// # Architecture
//
// One Client owns one live transport at a time. Every inbound frame is
// normalized into an Envelope, buffered, and delivered to subscribers in
// registration order. The optional relay republishes envelopes to NATS.
//
//	┌──────────────────────────────────────────────┐
//	│                stream.Client                 │
//	│                                              │
//	│  persistent-socket ─┐                        │
//	│  push-stream ───────┼─► normalize ─► buffer  │
//	│  polling ───────────┘       │                │
//	│                             ▼                │
//	│                    ordered fanout            │
//	└──────────────┬──────────────┬────────────────┘
//	               │              │
//	        dashboard code   relay.Relay
//	        (subscribers)         │
//	                       dashstream.updates.*
//	                         (NATS subjects)
//
// Transports are strategies behind one lifecycle: a full-duplex WebSocket
// connection with heartbeats, a one-way server-sent event stream, or a
// recurring HTTP poll. Switching transports at runtime tears down the old
// mechanism before the new one starts; at most one is ever active.
//
// # Packages
//
// Core:
//   - stream: Client, transports, envelope normalization, fanout, stats
//   - relay: NATS bridge republishing envelopes to platform subjects
//
// Infrastructure:
//   - config: file loading (JSON/YAML), env expansion, validation, schema check
//   - errors: classified error handling (transient/invalid/fatal)
//   - metric: Prometheus metrics registry and HTTP server
//   - health: health status monitoring and HTTP handler
//
// Utilities:
//   - pkg/buffer: bounded FIFO buffer with overflow policies
//   - pkg/retry: bounded retry for transient failures
//   - pkg/timestamp: Unix-millisecond wire timestamp handling
//
// # Usage
//
// Connect to a feed and receive updates:
//
//	cfg := stream.Config{
//	    Endpoint: "wss://feeds.example.com/live",
//	    Source:   stream.TransportPersistentSocket,
//	}
//	client, err := stream.New(cfg, stream.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	client.Subscribe("chart", func(env stream.Envelope) {
//	    for _, record := range env.Payload {
//	        render(record)
//	    }
//	})
//
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Disconnect()
//
// Bridge updates onto NATS:
//
//	nc, _ := nats.Connect(natsURL)
//	rly, _ := relay.New("edge-relay", nc, relay.Config{}, registry)
//	rly.Attach(client)
//	rly.Start(ctx)
//	defer rly.Stop(5 * time.Second)
//
// # Error Handling
//
// Construction and configuration errors are the only errors callers must
// handle. Runtime failures (lost connections, malformed frames, rejected
// publishes) feed the reconnection policy and the error counters instead
// of propagating; dashboards observe them through Stats, health statuses,
// and Prometheus metrics.
//
// # Binary
//
// cmd/dashstream runs a standalone bridge: it loads configuration, builds
// the client and relay, and serves /metrics and /healthz until signalled.
//
//	dashstream --config configs/example.yaml
//	dashstream --config configs/example.yaml --validate
package dashstream
