package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/c360/dashstream/errors"
)

// pollRequestTimeout bounds one polling GET so a hung server cannot stall
// the ticker loop indefinitely.
const pollRequestTimeout = 30 * time.Second

// pollTransport is the polling strategy: a recurring GET against the
// endpoint whose response body is treated as one inbound frame. It is
// considered established immediately; request failures are faults, not
// connection loss, so it never feeds the reconnection policy.
type pollTransport struct {
	endpoint string
	interval time.Duration
	h        hooks
	logger   *slog.Logger
	client   *http.Client

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func newPollTransport(cfg Config, h hooks, logger *slog.Logger) *pollTransport {
	return &pollTransport{
		endpoint: cfg.Endpoint,
		interval: cfg.UpdateFrequency,
		h:        h,
		logger:   logger,
		client:   &http.Client{Timeout: pollRequestTimeout},
	}
}

func (t *pollTransport) kind() Transport { return TransportPolling }

func (t *pollTransport) open(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
	go t.run(runCtx)
}

// run reports the transport open and then polls on the ticker until torn
// down. Requests are issued sequentially from this goroutine, so a slow
// response delays later ticks instead of overlapping them.
func (t *pollTransport) run(ctx context.Context) {
	t.h.onOpen()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.poll(ctx)
		}
	}
}

func (t *pollTransport) poll(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint, nil)
	if err != nil {
		t.h.onFault(errors.WrapInvalid(err, "pollTransport", "poll", "build request"))
		return
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Torn down mid-request; not a fault.
			return
		}
		t.h.onFault(errors.WrapTransient(err, "pollTransport", "poll", "request endpoint"))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.h.onFault(errors.WrapTransient(err, "pollTransport", "poll", "read response"))
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.h.onFault(errors.WrapTransient(
			fmt.Errorf("poll returned status %d", resp.StatusCode),
			"pollTransport", "poll", "request endpoint"))
		return
	}

	t.h.onFrame(body)
}

func (t *pollTransport) send(_ []byte) error {
	return errors.WrapInvalid(errors.ErrSendNotSupported,
		"pollTransport", "send", "polling transport cannot send")
}

func (t *pollTransport) close() {
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
