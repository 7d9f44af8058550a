package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360/dashstream/errors"
)

// transport is the strategy one connection attempt runs on. Exactly one
// transport is live per client at any time; a handle never outlives its
// connection attempt.
//
// open must not block on network I/O: establishment runs on the
// transport's own goroutine and reports back through the hooks. close
// tears the transport down and is safe to call more than once; after
// close returns no new hook invocations start (in-flight ones are fenced
// off by the client's connection epoch).
type transport interface {
	open(ctx context.Context)
	send(data []byte) error
	close()
	kind() Transport
}

// hooks connect a transport back to its owning client. The client stamps
// each hook set with the connection epoch it was created under, so
// callbacks from a torn-down transport are dropped instead of acting on a
// newer connection.
type hooks struct {
	// onOpen fires once when the transport is established. The polling
	// transport fires it immediately.
	onOpen func()
	// onFrame fires per inbound frame, sequentially from the transport's
	// reader goroutine.
	onFrame func(raw []byte)
	// onDown fires once when the transport fails to establish or dies at
	// runtime. Never fired by the polling transport.
	onDown func(cause error)
	// onFault fires on a recoverable request failure that does not kill
	// the transport. Only the polling transport uses it.
	onFault func(cause error)
}

// newTransport builds the transport for the configured kind. The
// configuration is validated before it is stored, so the default branch
// is unreachable through the public API.
func newTransport(cfg Config, h hooks, logger *slog.Logger) (transport, error) {
	switch cfg.Source {
	case TransportPersistentSocket:
		return newSocketTransport(cfg, h, logger), nil
	case TransportPushStream:
		return newPushTransport(cfg, h, logger), nil
	case TransportPolling:
		return newPollTransport(cfg, h, logger), nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown transport kind %q", cfg.Source),
			"stream", "newTransport", "select transport")
	}
}
