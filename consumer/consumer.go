// Package consumer bridges a blocking, queue-based broker client into a
// non-blocking, backpressured record stream. A Consumer runs two loops: a
// housekeeping loop driving the native client's internal callbacks, and a
// drain loop forwarding fetched records into a bounded output channel that
// application code ranges over.
package consumer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"kafkabridge/client"
	"kafkabridge/internal/logging"
)

const (
	// drivePollTimeout bounds one blocking housekeeping drive; close waits
	// at most this long for an in-flight drive to come back.
	drivePollTimeout = time.Second

	// drainThrottle is the pause after an empty or failed record dequeue,
	// so the drain loop does not busy-spin.
	drainThrottle = 10 * time.Millisecond
)

var metrics = struct {
	RecordsForwarded prometheus.Counter
	DriveErrors      prometheus.Counter
	UnexpectedEvents prometheus.Counter
}{
	RecordsForwarded: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kafkabridge", Subsystem: "consumer", Name: "records_forwarded_total",
		Help: "Records forwarded into the output channel",
	}),
	DriveErrors: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kafkabridge", Subsystem: "consumer", Name: "drive_errors_total",
		Help: "Non-fatal housekeeping drive failures",
	}),
	UnexpectedEvents: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kafkabridge", Subsystem: "consumer", Name: "unexpected_events_total",
		Help: "Non-record events seen on the record queue",
	}),
}

// Consumer is the application-facing facade. Create one with New, read
// records from Output, and Close it on every exit path.
type Consumer struct {
	cfg    client.Config
	native client.Client

	subMu  sync.Mutex
	topics []string

	out    chan *Message
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New validates cfg, constructs the native client through the driver
// registry and starts both polling loops. No native resource is allocated
// when validation fails.
func New(cfg client.Config) (*Consumer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	native, err := client.New(cfg.Driver)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	if err := native.Configure(cfg); err != nil {
		if errors.Is(err, client.ErrNoBrokers) {
			return nil, err
		}
		return nil, &NativeInitError{Detail: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		cfg:    cfg,
		native: native,
		out:    make(chan *Message, cfg.ChannelCapacity),
		cancel: cancel,
	}
	c.wg.Add(2)
	go c.driveLoop(ctx)
	go c.drainLoop(ctx)
	return c, nil
}

// Subscribe adds topics to the subscription and applies the full list to
// the native client. Repeated calls grow the same list rather than replace
// it. On native rejection the in-memory list still holds the attempted
// topics; there is no rollback.
func (c *Consumer) Subscribe(topics ...string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.subMu.Lock()
	c.topics = append(c.topics, topics...)
	applied := append([]string(nil), c.topics...)
	c.subMu.Unlock()

	if err := c.native.Subscribe(applied); err != nil {
		return &SubscribeError{Detail: err}
	}
	return nil
}

// Output is the sole record-consumption surface. The channel is bounded
// (backpressure) and closed by Close, so receivers can simply range over it.
func (c *Consumer) Output() <-chan *Message {
	return c.out
}

// StoreOffset marks msg's offset as the restart point for its topic and
// partition. The commit to the broker happens later, on the native client's
// own schedule.
func (c *Consumer) StoreOffset(msg *Message) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if msg == nil || msg.released.Load() {
		return ErrInvalidHandle
	}
	if err := c.native.StoreOffset(msg.Topic(), msg.Partition(), msg.Offset()); err != nil {
		return &OffsetStoreError{Detail: err}
	}
	return nil
}

// Close stops both loops, closes the output channel so pending receivers
// observe closed, then tears down the native client. Idempotent: the second
// and later calls return nil without side effects.
func (c *Consumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	// bounded by drivePollTimeout: a cancelled loop finishes its in-flight
	// drive but never re-enters it
	c.wg.Wait()
	close(c.out)

	if err := c.native.Close(); err != nil {
		logging.L().Error("consumer: native close failed", "error", err)
		return &CloseError{Detail: err}
	}
	return nil
}

// driveLoop pumps the native client's internal callbacks. Drive failures
// are non-fatal: a transient backend hiccup must not stop record delivery.
func (c *Consumer) driveLoop(ctx context.Context) {
	defer c.wg.Done()
	for ctx.Err() == nil {
		if err := c.native.Poll(drivePollTimeout); err != nil {
			metrics.DriveErrors.Inc()
			logging.L().Warn("consumer: housekeeping poll failed", "error", err)
		}
	}
}

// drainLoop moves fetched records from the native record queue into the
// output channel. A full channel blocks the send (backpressure) without
// affecting the drive loop; an empty queue throttles briefly.
func (c *Consumer) drainLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		ev, ok := c.native.PollRecord()
		if !ok {
			if !c.throttle(ctx) {
				return
			}
			continue
		}
		if ev.Type() != client.EventFetch {
			// not handed to a Message, so release it here
			ev.Release()
			metrics.UnexpectedEvents.Inc()
			logging.L().Warn("consumer: unexpected event on record queue", "kind", ev.Type().String())
			if !c.throttle(ctx) {
				return
			}
			continue
		}
		msg := newMessage(ev)
		select {
		case c.out <- msg:
			metrics.RecordsForwarded.Inc()
		case <-ctx.Done():
			msg.Release()
			return
		}
	}
}

func (c *Consumer) throttle(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(drainThrottle):
		return true
	}
}
