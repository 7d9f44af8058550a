// Package relay bridges a realtime stream client onto the NATS fabric.
//
// # Overview
//
// Dashboards are not the only consumers of live updates: platform
// deployments republish them for downstream services. A Relay subscribes
// to a stream.Client like any other subscriber, queues envelopes through
// a bounded buffer, and a single worker drains the queue, wrapping each
// envelope in a Message published to a kind-suffixed broker subject.
//
//	stream.Client ──fanout──► Relay.enqueue ──queue──► worker ──► NATS
//	                          (never blocks)           (retries, drops)
//
// The enqueue side runs on the client's delivery goroutine and never
// blocks: a full queue drops envelopes per the configured overflow
// policy instead of stalling fanout to the dashboard subscribers behind
// the relay.
//
// # Subjects and Wire Format
//
// Messages publish to <subject>.<kind>, so consumers can subscribe to
// one change kind or all of them:
//
//	dashstream.updates.insert
//	dashstream.updates.update
//	dashstream.updates.delete
//	dashstream.updates.batch
//	dashstream.updates.>        (everything)
//
// Each message is a JSON Message: a fresh uuid, the envelope's kind,
// timestamp, source, ordered payload records, and metadata when present.
//
// # Delivery Semantics
//
// Delivery is at-most-once. A publish that keeps failing is retried a
// configured number of times with a flat delay, then the message is
// dropped and counted. The relay never applies backpressure to the
// stream and never persists; consumers needing stronger guarantees
// should layer them broker-side.
//
// Publish-failure logging is throttled so a dead broker does not flood
// the log at queue drain speed; the failure counters are exact.
//
// # Lifecycle
//
//	relay, err := relay.New("orders-relay", nc, relay.DefaultConfig(), registry)
//	if err != nil {
//	    return err
//	}
//	relay.Attach(client)
//	if err := relay.Start(ctx); err != nil {
//	    return err
//	}
//	defer relay.Stop(5 * time.Second)
//
// Stop detaches from the client, drains what is already queued bounded
// by the timeout, and is idempotent.
//
// # Health and Metrics
//
// Health reports unhealthy when the relay is stopped, detached, or the
// broker connection is down; degraded when the queue is saturated or
// publishes are failing. Prometheus metrics (namespace dashstream,
// subsystem relay): enqueued, dropped, published, and failed counters, a
// queue depth gauge, and a publish latency histogram, all labeled by
// relay name.
package relay
