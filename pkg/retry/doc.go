// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff. DashStream
// uses it where a short burst of retries is the right answer: publishing relay
// messages to NATS and waiting out broker unavailability during process startup.
//
// The stream client's reconnect loop does NOT use this package. Reconnection there
// runs on a fixed interval between attempts, which is a different contract from
// backoff and is implemented where the connection state lives.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return publisher.Publish(subject, data)
//	})
//
// Startup connect to a critical resource:
//
//	nc, err := retry.DoWithResult(ctx, retry.Persistent(), func() (*nats.Conn, error) {
//	    return nats.Connect(url, opts...)
//	})
//
// Marking an error as not worth retrying:
//
//	err := retry.Do(ctx, cfg, func() error {
//	    if err := validate(msg); err != nil {
//	        return retry.NonRetryable(err)
//	    }
//	    return send(msg)
//	})
//
// # Design Philosophy
//
// This package is intentionally minimal:
//
//   - No circuit breakers
//   - No metrics collection (instrument at the call site)
//   - No error classification (caller marks errors with NonRetryable)
//   - Just exponential backoff with jitter
//
// # Context Cancellation
//
// All retry operations respect context cancellation and stop immediately when
// the context is cancelled, either during operation execution or during the
// backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. The jitter mechanism uses a
// thread-safe random source to avoid contention.
package retry
