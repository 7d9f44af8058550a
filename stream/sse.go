package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/c360/dashstream/errors"
)

// maxPushFrameSize bounds a single server-sent event line. Frames larger
// than this kill the stream and go through the reconnection policy.
const maxPushFrameSize = 1 << 20

// pushTransport is the push-stream strategy: a long-lived GET whose body
// is a server-sent event stream. One-way; sends are not supported and no
// heartbeat runs on it.
type pushTransport struct {
	endpoint string
	h        hooks
	logger   *slog.Logger
	client   *http.Client

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func newPushTransport(cfg Config, h hooks, logger *slog.Logger) *pushTransport {
	return &pushTransport{
		endpoint: cfg.Endpoint,
		h:        h,
		logger:   logger,
		// No client timeout: the stream is long-lived. Teardown runs
		// through context cancellation.
		client: &http.Client{},
	}
}

func (t *pushTransport) kind() Transport { return TransportPushStream }

func (t *pushTransport) open(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	go t.run(runCtx)
}

func (t *pushTransport) run(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint, nil)
	if err != nil {
		t.h.onDown(errors.WrapInvalid(err, "pushTransport", "run", "build stream request"))
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		t.h.onDown(errors.WrapTransient(err, "pushTransport", "run", "open stream"))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.h.onDown(errors.WrapTransient(
			fmt.Errorf("stream request returned status %d", resp.StatusCode),
			"pushTransport", "run", "open stream"))
		return
	}

	t.h.onOpen()
	t.pump(resp.Body)
}

// pump reads the event stream line by line. Consecutive data lines
// accumulate into one frame, dispatched when the blank separator line
// arrives. Comment lines (leading colon) are keepalives and are skipped;
// other field lines (event, id, retry) are not part of the feed protocol.
func (t *pushTransport) pump(body io.Reader) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxPushFrameSize)

	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				t.h.onFrame([]byte(strings.Join(data, "\n")))
				data = data[:0]
			}
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	err := scanner.Err()
	if err == nil {
		// Orderly server close still feeds the reconnection policy.
		err = io.EOF
	}
	t.h.onDown(errors.WrapTransient(err, "pushTransport", "pump", "read stream"))
}

func (t *pushTransport) send(_ []byte) error {
	return errors.WrapInvalid(errors.ErrSendNotSupported,
		"pushTransport", "send", "push stream is one-way")
}

func (t *pushTransport) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
