package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/health"
	"github.com/c360/dashstream/metric"
	"github.com/c360/dashstream/pkg/buffer"
	"github.com/c360/dashstream/pkg/retry"
	"github.com/c360/dashstream/stream"
)

// Publisher is the narrow broker surface the relay publishes through.
// *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
}

// Message is the wire format for one relayed envelope. Consumers on the
// broker side decode this from <subject>.<kind>.
type Message struct {
	ID        string          `json:"id"`
	Kind      stream.Kind     `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Payload   []stream.Record `json:"payload"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// Option configures a Relay at construction.
type Option func(*Relay)

// WithLogger sets the relay logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Relay bridges a stream Client onto the broker: it subscribes to the
// client, queues envelopes through a bounded buffer, and a worker drains
// the queue, wrapping each envelope in a Message published to
// <subject>.<kind>. Delivery is fire and forget; a message that exhausts
// its publish attempts is dropped and counted, never blocking the stream.
type Relay struct {
	name    string
	nc      Publisher
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	queue    buffer.Buffer[stream.Envelope]
	wake     chan struct{}
	retryCfg retry.Config

	// failLog throttles publish-failure logging so a dead broker does not
	// flood the log at queue drain speed. Failures are still all counted.
	failLog *rate.Limiter

	lifecycleMu sync.Mutex
	shutdown    chan struct{}
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	mu        sync.RWMutex
	running   bool
	startTime time.Time
	source    *stream.Client

	enqueued     atomic.Int64
	dropped      atomic.Int64
	published    atomic.Int64
	failed       atomic.Int64
	failStreak   atomic.Int64
	lastActivity atomic.Value // time.Time
}

// New validates the configuration and builds a stopped Relay.
func New(name string, nc Publisher, cfg Config, registry *metric.MetricsRegistry, opts ...Option) (*Relay, error) {
	if name == "" {
		name = "nats-relay"
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Relay{
		name:   name,
		nc:     nc,
		cfg:    cfg,
		logger: slog.Default(),
		wake:   make(chan struct{}, 1),
		retryCfg: retry.Config{
			MaxAttempts:  cfg.PublishRetries,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     cfg.RetryDelay,
			Multiplier:   1.0,
		},
		failLog: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", r.name)

	m, err := newMetrics(registry, r.name)
	if err != nil {
		return nil, errors.WrapFatal(err, "Relay", "New", "register metrics")
	}
	r.metrics = m

	queue, err := buffer.NewCircularBuffer[stream.Envelope](cfg.QueueSize,
		buffer.WithOverflowPolicy[stream.Envelope](cfg.overflowPolicy()),
		buffer.WithDropCallback[stream.Envelope](func(env stream.Envelope) {
			r.dropped.Add(1)
			r.metrics.recordDropped()
			if r.failLog.Allow() {
				r.logger.Warn("queue full, envelope dropped",
					"policy", cfg.OnFull, "kind", env.Kind)
			}
		}))
	if err != nil {
		return nil, errors.WrapFatal(err, "Relay", "New", "create delivery queue")
	}
	r.queue = queue

	return r, nil
}

// Name returns the relay name used in logs and metric labels.
func (r *Relay) Name() string { return r.name }

// Attach subscribes the relay to a stream client under its fixed
// subscriber id. Attaching to a second client moves the subscription; the
// previous client stops feeding the relay.
func (r *Relay) Attach(c *stream.Client) {
	if c == nil {
		return
	}

	r.mu.Lock()
	prev := r.source
	r.source = c
	r.mu.Unlock()

	if prev != nil && prev != c {
		prev.Unsubscribe(r.subscriberID())
	}
	c.Subscribe(r.subscriberID(), r.enqueue)
	r.logger.Info("attached to stream client", "client", c.Name())
}

// Detach unsubscribes the relay from its stream client. Envelopes already
// queued still drain.
func (r *Relay) Detach() {
	r.mu.Lock()
	prev := r.source
	r.source = nil
	r.mu.Unlock()

	if prev != nil {
		prev.Unsubscribe(r.subscriberID())
		r.logger.Info("detached from stream client", "client", prev.Name())
	}
}

func (r *Relay) subscriberID() string {
	return "relay:" + r.name
}

// Start launches the publishing worker.
func (r *Relay) Start(ctx context.Context) error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Relay", "Start", "check running state")
	}
	if r.nc == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "Relay", "Start", "publisher required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.shutdown = make(chan struct{})

	r.wg.Add(1)
	go r.worker(runCtx)

	r.mu.Lock()
	r.running = true
	r.startTime = time.Now()
	r.mu.Unlock()

	r.logger.Info("relay started", "subject", r.cfg.Subject, "queue_size", r.cfg.QueueSize)
	return nil
}

// Stop detaches from the stream client, lets the worker drain what is
// already queued, and waits for it up to the timeout. Idempotent; a
// second Stop returns nil.
func (r *Relay) Stop(timeout time.Duration) error {
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if !r.running {
		return nil
	}

	r.Detach()
	close(r.shutdown)

	waitCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(waitCh)
	}()

	var err error
	select {
	case <-waitCh:
	case <-time.After(timeout):
		err = errors.WrapTransient(
			fmt.Errorf("shutdown timeout after %v", timeout),
			"Relay", "Stop", "drain queue")
	}

	// Cut any in-flight retry loose whether or not the drain finished.
	r.cancel()

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	r.logger.Info("relay stopped",
		"published", r.published.Load(), "failed", r.failed.Load(), "dropped", r.dropped.Load())
	return err
}

// Health reports the relay's health: unhealthy when stopped, detached, or
// the broker connection is down; degraded when the queue is saturated or
// publishes are failing.
func (r *Relay) Health() health.Status {
	r.mu.RLock()
	running := r.running
	startTime := r.startTime
	attached := r.source != nil
	r.mu.RUnlock()

	metrics := &health.Metrics{
		ErrorCount:       int(r.failed.Load() + r.dropped.Load()),
		RecordsDelivered: r.published.Load(),
	}
	if running {
		metrics.Uptime = time.Since(startTime)
	}
	if v := r.lastActivity.Load(); v != nil {
		metrics.LastActivity = v.(time.Time)
	}

	var status health.Status
	switch {
	case !running:
		status = health.NewUnhealthy(r.name, "relay not started")
	case !attached:
		status = health.NewUnhealthy(r.name, "no stream client attached")
	case !r.nc.IsConnected():
		status = health.NewUnhealthy(r.name, "broker connection down")
	case r.queue.IsFull():
		status = health.NewDegraded(r.name, "delivery queue saturated")
	case r.failStreak.Load() > 0:
		status = health.NewDegraded(r.name, "publishes failing")
	default:
		status = health.NewHealthy(r.name, "relaying")
	}
	return status.WithMetrics(metrics)
}

// QueueDepth returns the number of envelopes waiting to publish.
func (r *Relay) QueueDepth() int {
	return r.queue.Size()
}

// enqueue is the stream subscriber handler. It runs on the client's
// delivery goroutine, so it must not block: the envelope goes into the
// queue under its overflow policy and the worker is nudged.
func (r *Relay) enqueue(env stream.Envelope) {
	r.mu.RLock()
	running := r.running
	r.mu.RUnlock()
	if !running {
		return
	}

	if err := r.queue.Write(env); err != nil {
		// Queue closed mid-shutdown; nothing to deliver to.
		return
	}
	r.enqueued.Add(1)
	r.metrics.recordEnqueued()
	r.metrics.recordQueueDepth(r.queue.Size())

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// worker drains the queue until stopped. On shutdown it publishes what is
// already queued before exiting; Stop bounds that drain with its timeout.
func (r *Relay) worker(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			r.drain(ctx)
			return
		case <-r.wake:
			r.drain(ctx)
		}
	}
}

// drain publishes queued envelopes until the queue is empty or the
// context dies.
func (r *Relay) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		env, ok := r.queue.Read()
		if !ok {
			r.metrics.recordQueueDepth(0)
			return
		}
		r.metrics.recordQueueDepth(r.queue.Size())
		r.publish(ctx, env)
	}
}

// publish wraps one envelope in a Message and publishes it, retrying per
// config with a flat delay. Exhausted attempts drop the message.
func (r *Relay) publish(ctx context.Context, env stream.Envelope) {
	msg := Message{
		ID:        uuid.NewString(),
		Kind:      env.Kind,
		Timestamp: env.Timestamp,
		Source:    env.Source,
		Payload:   env.Payload,
		Metadata:  env.Metadata,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		r.failed.Add(1)
		r.metrics.recordFailed()
		if r.failLog.Allow() {
			r.logger.Error("envelope not serializable, dropped", "kind", env.Kind, "error", err)
		}
		return
	}

	subject := r.cfg.Subject + "." + string(env.Kind)
	start := time.Now()

	err = retry.Do(ctx, r.retryCfg, func() error {
		return r.nc.Publish(subject, data)
	})
	if err != nil {
		r.failed.Add(1)
		r.failStreak.Add(1)
		r.metrics.recordFailed()
		if r.failLog.Allow() {
			r.logger.Error("publish failed, message dropped",
				"subject", subject, "attempts", r.retryCfg.MaxAttempts, "error", err)
		}
		return
	}

	r.failStreak.Store(0)
	r.published.Add(1)
	r.lastActivity.Store(time.Now())
	r.metrics.recordPublished(time.Since(start).Seconds())
	r.logger.Debug("published", "subject", subject, "records", len(msg.Payload))
}
