package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/dashstream/errors"
)

// handshakeTimeout bounds the WebSocket dial, including the HTTP upgrade.
const handshakeTimeout = 45 * time.Second

// socketTransport is the persistent-socket strategy: a full-duplex
// WebSocket connection. The only transport that supports outbound sends.
type socketTransport struct {
	endpoint    string
	compression bool
	h           hooks
	logger      *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	closed bool

	// writeMu serializes writers; gorilla connections support at most one
	// concurrent writer.
	writeMu sync.Mutex
}

func newSocketTransport(cfg Config, h hooks, logger *slog.Logger) *socketTransport {
	return &socketTransport{
		endpoint:    cfg.Endpoint,
		compression: cfg.EnableCompression,
		h:           h,
		logger:      logger,
	}
}

func (t *socketTransport) kind() Transport { return TransportPersistentSocket }

func (t *socketTransport) open(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	go t.run(runCtx)
}

// run dials the endpoint and pumps inbound frames until the connection
// dies. Dispatch order equals delivery order: frames are handed to
// onFrame sequentially from this goroutine.
func (t *socketTransport) run(ctx context.Context) {
	dialer := websocket.Dialer{
		HandshakeTimeout:  handshakeTimeout,
		EnableCompression: t.compression,
	}

	conn, resp, err := dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		t.h.onDown(errors.WrapTransient(err, "socketTransport", "run", "dial endpoint"))
		return
	}

	t.mu.Lock()
	if t.closed {
		// Torn down while the dial was in flight.
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.conn = conn
	t.mu.Unlock()

	t.h.onOpen()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.h.onDown(errors.WrapTransient(err, "socketTransport", "run", "read frame"))
			return
		}
		t.h.onFrame(message)
	}
}

func (t *socketTransport) send(data []byte) error {
	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.mu.Unlock()

	if conn == nil || closed {
		return errors.WrapTransient(errors.ErrNoConnection,
			"socketTransport", "send", "socket not open")
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.WrapTransient(err, "socketTransport", "send", "write frame")
	}
	return nil
}

func (t *socketTransport) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}
