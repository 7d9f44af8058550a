package stream

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/metric"
	"github.com/c360/dashstream/pkg/buffer"
	"github.com/c360/dashstream/pkg/timestamp"
)

// Handler receives envelopes delivered to a subscriber. Handlers run
// synchronously on the transport reader goroutine; a slow handler delays
// every subscriber behind it.
type Handler func(Envelope)

// Stats is a point-in-time snapshot of a Client's connection statistics.
// Counters accumulate across reconnects and reset only at construction.
// ReconnectAttempts resets to zero on a fresh successful connection or an
// explicit Connect, never on read.
type Stats struct {
	Status           Status    `json:"status"`
	LastUpdate       time.Time `json:"last_update"`
	MessagesReceived int64     `json:"messages_received"`
	MessagesSent     int64     `json:"messages_sent"`
	// Uptime is recomputed per read from the connection start time. It
	// reads zero while the client is fully down.
	Uptime            time.Duration `json:"uptime"`
	ReconnectAttempts int           `json:"reconnect_attempts"`
	// ProcessingLatency is the last observed local frame processing time,
	// normalization start to fanout completion. It is not network
	// latency.
	ProcessingLatency time.Duration `json:"processing_latency"`
	Errors            int64         `json:"errors"`
}

// Option configures a Client at construction.
type Option func(*Client)

// WithLogger sets the client logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics wires the client's metrics into the given registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(c *Client) {
		c.registry = registry
	}
}

// WithName sets the name used in logs and metric labels. Defaults to a
// generated id so independent clients never collide.
func WithName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.name = name
		}
	}
}

type subscriber struct {
	id      string
	handler Handler
}

// heartbeat is the keepalive frame sent on the socket transport.
type heartbeat struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// Client maintains a live connection to a remote data feed over one of
// three interchangeable transports, survives disconnects with a bounded
// flat-delay retry loop, normalizes inbound frames into envelopes,
// retains recent records in a ring buffer, and fans envelopes out to
// registered subscribers.
//
// The client exclusively owns its transport handle, buffer, subscriber
// registry, and statistics. Handles are torn down and discarded on every
// disconnect or transport switch; none outlives its connection attempt.
// Independent Clients share no state.
type Client struct {
	name     string
	logger   *slog.Logger
	registry *metric.MetricsRegistry
	metrics  *Metrics

	// mu guards connection state. Every transport callback and timer
	// checks epoch under mu before acting, so callbacks stamped by a
	// torn-down connection are dropped.
	mu             sync.Mutex
	cfg            Config
	status         Status
	epoch          uint64
	transport      transport
	connCtx        context.Context
	connStart      time.Time
	attempts       int
	reconnectTimer *time.Timer
	hbStop         chan struct{}
	buf            buffer.Buffer[Record]

	subMu    sync.RWMutex
	subs     map[string]Handler
	subOrder []string

	messagesReceived atomic.Int64
	messagesSent     atomic.Int64
	errorCount       atomic.Int64
	lastUpdate       atomic.Value // time.Time
	lastLatency      atomic.Int64 // nanoseconds
}

// New validates the configuration and builds a disconnected Client. The
// construction error is the only error a caller has to handle: once the
// client exists, failures feed status transitions and counters instead of
// propagating.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		name:   "stream-" + uuid.NewString()[:8],
		logger: slog.Default(),
		cfg:    cfg,
		status: StatusDisconnected,
		subs:   make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", c.name)

	m, err := newMetrics(c.registry, c.name)
	if err != nil {
		return nil, errors.WrapFatal(err, "Client", "New", "register metrics")
	}
	c.metrics = m

	buf, err := buffer.NewCircularBuffer[Record](cfg.DataBufferSize,
		buffer.WithOverflowPolicy[Record](buffer.DropOldest))
	if err != nil {
		return nil, errors.WrapFatal(err, "Client", "New", "create ring buffer")
	}
	c.buf = buf

	c.metrics.recordStatus(StatusDisconnected)
	return c, nil
}

// Name returns the client name used in logs and metric labels.
func (c *Client) Name() string { return c.name }

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Config returns a copy of the current configuration.
func (c *Client) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Connect starts a fresh logical connection: it records the attempt start
// time, resets the reconnect counter, and dispatches establishment to the
// configured transport in the background. Calling it while connected or
// connecting is a no-op; a second concurrent transport is never opened.
//
// The context is retained for the life of the logical connection and
// cancels in-flight dials on teardown. The synchronous error covers setup
// only; dial failures feed the reconnection policy asynchronously.
func (c *Client) Connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusConnected || c.status == StatusConnecting {
		return nil
	}

	c.teardownLocked()
	c.connCtx = ctx
	c.attempts = 0
	c.connStart = time.Now()

	return c.connectLocked()
}

// Disconnect tears down the active transport, cancels the pending
// reconnect timer, the heartbeat loop, and the polling ticker, and
// settles at disconnected until the next Connect. Frames still in flight
// from the old transport are dropped at the epoch gate.
//
// Idempotent, and safe to call from within a subscriber callback:
// teardown never joins the goroutine delivering the current envelope.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusDisconnected && c.transport == nil && c.reconnectTimer == nil {
		return
	}

	c.teardownLocked()
	c.transitionLocked(StatusDisconnected)
	c.connStart = time.Time{}
	c.logger.Info("disconnected")
}

// SendData sends an arbitrary payload over the transport, fire and
// forget. It only has effect while connected; otherwise the payload is
// silently dropped, as it is on the one-way transports. A synchronous
// send failure counts as an error and never propagates.
func (c *Client) SendData(payload any) {
	c.mu.Lock()
	tr := c.transport
	connected := c.status == StatusConnected
	c.mu.Unlock()

	if !connected || tr == nil {
		c.logger.Debug("send dropped, not connected")
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		c.trackError("marshal")
		c.logger.Debug("send dropped, payload not serializable", "error", err)
		return
	}

	if err := tr.send(data); err != nil {
		if stderrors.Is(err, errors.ErrSendNotSupported) {
			c.logger.Debug("send dropped, transport is one-way")
			return
		}
		c.trackError("send")
		c.logger.Debug("send failed", "error", err)
		return
	}

	c.messagesSent.Add(1)
	c.metrics.recordSent()
}

// RequestData wraps a subscription config in a data-request message,
// stamps it with a send timestamp, and forwards it via SendData. The
// request's batch size falls back to the configured BatchSize when unset.
// No response correlation is performed; any response arrives as ordinary
// inbound envelopes.
func (c *Client) RequestData(req Request) {
	if req.BatchSize == 0 {
		c.mu.Lock()
		req.BatchSize = c.cfg.BatchSize
		c.mu.Unlock()
	}

	c.SendData(dataRequest{
		Type:      "request",
		Request:   req,
		Timestamp: timestamp.Now(),
	})
}

// Subscribe registers a handler under the given id. Registering an id
// that already exists replaces its handler in place, keeping the original
// position in delivery order. A nil handler is ignored. The registry
// grows with its callers: forgetting Unsubscribe keeps the handler
// delivering for the life of the client.
func (c *Client) Subscribe(id string, h Handler) {
	if h == nil {
		return
	}
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if _, exists := c.subs[id]; !exists {
		c.subOrder = append(c.subOrder, id)
	}
	c.subs[id] = h
}

// Unsubscribe removes a subscriber. Unknown ids are a no-op.
func (c *Client) Unsubscribe(id string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if _, exists := c.subs[id]; !exists {
		return
	}
	delete(c.subs, id)
	for i, sid := range c.subOrder {
		if sid == id {
			c.subOrder = append(c.subOrder[:i], c.subOrder[i+1:]...)
			break
		}
	}
}

// Stats returns a point-in-time snapshot of connection statistics.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	status := c.status
	attempts := c.attempts
	connStart := c.connStart
	c.mu.Unlock()

	var uptime time.Duration
	if !connStart.IsZero() {
		uptime = time.Since(connStart)
	}

	var lastUpdate time.Time
	if v := c.lastUpdate.Load(); v != nil {
		lastUpdate = v.(time.Time)
	}

	return Stats{
		Status:            status,
		LastUpdate:        lastUpdate,
		MessagesReceived:  c.messagesReceived.Load(),
		MessagesSent:      c.messagesSent.Load(),
		Uptime:            uptime,
		ReconnectAttempts: attempts,
		ProcessingLatency: time.Duration(c.lastLatency.Load()),
		Errors:            c.errorCount.Load(),
	}
}

// BufferedData returns a copy of the ring buffer contents, oldest first.
// Never the live backing store; mutating the result cannot affect the
// client.
func (c *Client) BufferedData() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Snapshot()
}

// ClearBuffer empties the ring buffer.
func (c *Client) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Clear()
	c.metrics.recordBufferSize(0)
}

// UpdateConfig merge-patches the configuration. An invalid result is
// rejected with the configuration left unchanged. A transport kind change
// while connected or connecting switches transports immediately: the old
// handle is torn down and establishment restarts with the new kind, not
// lazily on the next reconnect.
func (c *Client) UpdateConfig(patch ConfigPatch) error {
	return c.applyPatch(patch)
}

// UpdateStreamConfig is the runtime variant dashboards use to retune a
// live stream. Identical merge and transport-switch semantics to
// UpdateConfig.
func (c *Client) UpdateStreamConfig(patch ConfigPatch) error {
	return c.applyPatch(patch)
}

func (c *Client) applyPatch(patch ConfigPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := patch.applyTo(c.cfg)
	if err := next.Validate(); err != nil {
		return err
	}

	prev := c.cfg
	c.cfg = next

	if next.DataBufferSize != prev.DataBufferSize {
		c.resizeBufferLocked(next.DataBufferSize)
	}

	if next.Source != prev.Source && (c.status == StatusConnected || c.status == StatusConnecting) {
		c.logger.Info("transport kind changed, reconnecting",
			"from", prev.Source, "to", next.Source)
		c.teardownLocked()
		c.transitionLocked(StatusDisconnected)
		c.attempts = 0
		c.connStart = time.Now()
		return c.connectLocked()
	}
	return nil
}

// resizeBufferLocked swaps the ring buffer for one with the new capacity,
// keeping the most recent records that fit.
func (c *Client) resizeBufferLocked(capacity int) {
	next, err := buffer.NewCircularBuffer[Record](capacity,
		buffer.WithOverflowPolicy[Record](buffer.DropOldest))
	if err != nil {
		return
	}

	snapshot := c.buf.Snapshot()
	if len(snapshot) > capacity {
		snapshot = snapshot[len(snapshot)-capacity:]
	}
	for _, r := range snapshot {
		_ = next.Write(r)
	}

	_ = c.buf.Close()
	c.buf = next
	c.metrics.recordBufferSize(next.Size())
}

// connectLocked transitions to connecting and dispatches establishment to
// the configured transport strategy. The synchronous error covers setup
// only; dial failures arrive through handleDown.
func (c *Client) connectLocked() error {
	c.transitionLocked(StatusConnecting)

	epoch := c.epoch
	h := hooks{
		onOpen:  func() { c.handleOpen(epoch) },
		onFrame: func(raw []byte) { c.handleFrame(epoch, raw) },
		onDown:  func(cause error) { c.handleDown(epoch, cause) },
		onFault: func(cause error) { c.handleFault(epoch, cause) },
	}

	tr, err := newTransport(c.cfg, h, c.logger)
	if err != nil {
		c.transitionLocked(StatusError)
		return err
	}

	c.transport = tr
	tr.open(c.connCtx)
	c.logger.Info("connecting", "transport", c.cfg.Source, "endpoint", c.cfg.Endpoint)
	return nil
}

// transitionLocked applies a status change if the state machine allows
// it. Illegal transitions are dropped, which keeps a stale timer or
// callback from moving a client that has already gone elsewhere.
func (c *Client) transitionLocked(to Status) bool {
	from := c.status
	if from == to {
		return true
	}
	if !canTransition(from, to) {
		c.logger.Warn("illegal status transition dropped", "from", from, "to", to)
		return false
	}
	c.status = to
	c.metrics.recordStatus(to)
	c.logger.Info("status changed", "from", from, "to", to)
	return true
}

// teardownLocked invalidates the current connection: bumps the epoch so
// in-flight callbacks drop, cancels timers and the heartbeat, and
// discards the transport handle.
func (c *Client) teardownLocked() {
	c.epoch++
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
	if c.transport != nil {
		c.transport.close()
		c.transport = nil
	}
}

// handleOpen runs when a transport reports established.
func (c *Client) handleOpen(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}
	if !c.transitionLocked(StatusConnected) {
		return
	}

	// A fresh successful connection starts the retry budget over.
	c.attempts = 0

	if c.transport != nil && c.transport.kind() == TransportPersistentSocket {
		c.startHeartbeatLocked(epoch)
	}
}

// handleDown runs when a socket or push transport dies, during
// establishment or at runtime. It discards the dead handle and applies
// the reconnection policy: if attempts so far are below the maximum,
// count one more and schedule a retry after a flat ReconnectInterval;
// otherwise give up into the terminal error status until the caller
// connects again. The delay is fixed per attempt, not a backoff schedule.
func (c *Client) handleDown(epoch uint64, cause error) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}

	wasConnected := c.status == StatusConnected
	c.teardownLocked()

	errType := "connect_failed"
	if wasConnected {
		errType = "connection_lost"
	}

	if c.attempts < c.cfg.MaxReconnectAttempts {
		c.attempts++
		if wasConnected {
			c.transitionLocked(StatusDisconnected)
		} else {
			c.transitionLocked(StatusError)
		}
		c.metrics.recordReconnect()

		retryEpoch := c.epoch
		delay := c.cfg.ReconnectInterval
		c.reconnectTimer = time.AfterFunc(delay, func() { c.retryConnect(retryEpoch) })
		c.logger.Warn("transport down, retry scheduled", "cause", cause,
			"attempt", c.attempts, "max", c.cfg.MaxReconnectAttempts, "delay", delay)
	} else {
		c.transitionLocked(StatusError)
		c.connStart = time.Time{}
		c.logger.Error("reconnect attempts exhausted", "cause", cause,
			"attempts", c.attempts)
	}
	c.mu.Unlock()

	c.trackError(errType)
}

// retryConnect runs when the reconnect timer fires.
func (c *Client) retryConnect(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}
	c.reconnectTimer = nil
	if c.status == StatusConnected || c.status == StatusConnecting {
		return
	}
	if err := c.connectLocked(); err != nil {
		c.logger.Error("reconnect setup failed", "error", err)
	}
}

// handleFault runs on recoverable transport faults, such as a failed
// polling request. The fault is counted; status and timers are untouched.
func (c *Client) handleFault(epoch uint64, cause error) {
	c.mu.Lock()
	stale := epoch != c.epoch
	c.mu.Unlock()
	if stale {
		return
	}

	c.trackError("poll_request")
	c.logger.Debug("transport fault", "cause", cause)
}

// handleFrame normalizes one raw inbound frame, buffers its records, and
// fans the envelope out. It runs on the transport's reader goroutine, so
// frames process strictly in delivery order and fanout is synchronous.
//
// Processing latency spans this function, normalization start to fanout
// completion: local processing cost, not network latency.
func (c *Client) handleFrame(epoch uint64, raw []byte) {
	start := time.Now()

	env, err := normalizeFrame(raw)
	if err != nil {
		c.trackError("malformed_frame")
		c.logger.Debug("dropped malformed frame", "error", err)
		return
	}

	c.mu.Lock()
	if epoch != c.epoch {
		// Torn down while this frame was in flight.
		c.mu.Unlock()
		return
	}
	for _, record := range env.Payload {
		_ = c.buf.Write(record)
	}
	c.metrics.recordBufferSize(c.buf.Size())
	c.mu.Unlock()

	c.messagesReceived.Add(1)
	c.metrics.recordReceived()
	c.lastUpdate.Store(time.Now())

	c.fanout(env)

	latency := time.Since(start)
	c.lastLatency.Store(int64(latency))
	c.metrics.recordLatency(latency.Seconds())
}

// fanout delivers one envelope synchronously to every subscriber in
// registration order. A panicking subscriber is counted and isolated;
// subscribers before and after it still run.
func (c *Client) fanout(env Envelope) {
	c.subMu.RLock()
	subscribers := make([]subscriber, 0, len(c.subOrder))
	for _, id := range c.subOrder {
		if h, ok := c.subs[id]; ok {
			subscribers = append(subscribers, subscriber{id: id, handler: h})
		}
	}
	c.subMu.RUnlock()

	for _, s := range subscribers {
		c.deliver(s, env)
	}
}

func (c *Client) deliver(s subscriber, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.trackError("subscriber_panic")
			c.logger.Error("subscriber panicked", "subscriber", s.id, "panic", r)
		}
	}()
	s.handler(env)
}

// startHeartbeatLocked launches the keepalive loop for the current
// connection. Socket transport only.
func (c *Client) startHeartbeatLocked(epoch uint64) {
	stop := make(chan struct{})
	c.hbStop = stop
	go c.heartbeatLoop(epoch, c.cfg.HeartbeatInterval, stop)
}

// heartbeatLoop sends a keepalive frame every interval while the
// connection stays up. Send failures count as errors only; a dead
// connection is discovered by the transport's own close or error, an
// accepted detection-latency trade-off.
func (c *Client) heartbeatLoop(epoch uint64, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if epoch != c.epoch || c.status != StatusConnected || c.transport == nil {
				c.mu.Unlock()
				return
			}
			tr := c.transport
			c.mu.Unlock()

			frame, _ := json.Marshal(heartbeat{Type: "ping", Timestamp: timestamp.Now()})
			if err := tr.send(frame); err != nil {
				c.trackError("heartbeat")
				c.logger.Debug("heartbeat send failed", "error", err)
			}
		}
	}
}

// trackError counts one error occurrence, cumulatively and per-type.
func (c *Client) trackError(errorType string) {
	c.errorCount.Add(1)
	c.metrics.recordError(errorType)
}
