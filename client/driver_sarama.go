package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kafkabridge/internal/logging"

	"github.com/IBM/sarama"
)

func init() { Register("sarama", func() Client { return &saramaDriver{} }) }

var errDriverClosed = errors.New("consumer is closed")

// saramaDriver implements Client on a sarama consumer group. The group's
// push-style delivery is adapted to the queue surface: a handler goroutine
// feeds the bounded record queue (admission gated by the backpressure
// controller), and Poll drains the housekeeping side (client errors,
// rebalance notices) plus flushes stored offsets on the commit cadence.
type saramaDriver struct {
	cfg  Config
	opts saramaOptions

	cl      sarama.Client
	group   sarama.ConsumerGroup
	bp      *Controller
	offsets *OffsetStore

	records chan Event
	notices chan EventType

	sessMu  sync.RWMutex
	curSess sarama.ConsumerGroupSession

	mu            sync.Mutex // guards the consume loop handle
	consumeCancel context.CancelFunc
	consumeDone   chan struct{}

	closed atomic.Bool
}

// saramaOptions is the subset of native tunables the driver recognizes,
// keyed by their standard Kafka property names in Config.Options.
type saramaOptions struct {
	groupID        string
	clientID       string
	initialOffset  int64
	autoCommit     bool
	commitInterval time.Duration
	sessionTimeout time.Duration
	version        sarama.KafkaVersion
	hasVersion     bool
}

func parseOptions(raw map[string]string) (saramaOptions, error) {
	opts := saramaOptions{
		initialOffset:  sarama.OffsetNewest,
		autoCommit:     true,
		commitInterval: 5 * time.Second,
	}
	for k, v := range raw {
		switch k {
		case "group.id":
			opts.groupID = v
		case "client.id":
			opts.clientID = v
		case "auto.offset.reset":
			switch v {
			case "smallest", "earliest", "beginning", "oldest":
				opts.initialOffset = sarama.OffsetOldest
			case "largest", "latest", "end", "newest":
				opts.initialOffset = sarama.OffsetNewest
			default:
				return opts, fmt.Errorf("invalid value %q for configuration property %q", v, k)
			}
		case "enable.auto.commit":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, fmt.Errorf("invalid value %q for configuration property %q", v, k)
			}
			opts.autoCommit = b
		case "auto.commit.interval.ms":
			ms, err := strconv.Atoi(v)
			if err != nil || ms <= 0 {
				return opts, fmt.Errorf("invalid value %q for configuration property %q", v, k)
			}
			opts.commitInterval = time.Duration(ms) * time.Millisecond
		case "session.timeout.ms":
			ms, err := strconv.Atoi(v)
			if err != nil || ms <= 0 {
				return opts, fmt.Errorf("invalid value %q for configuration property %q", v, k)
			}
			opts.sessionTimeout = time.Duration(ms) * time.Millisecond
		case "broker.version.fallback":
			ver, err := sarama.ParseKafkaVersion(v)
			if err != nil {
				return opts, fmt.Errorf("invalid value %q for configuration property %q: %v", v, k, err)
			}
			opts.version, opts.hasVersion = ver, true
		default:
			return opts, fmt.Errorf("unknown configuration property %q", k)
		}
	}
	return opts, nil
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (d *saramaDriver) Configure(cfg Config) error {
	opts, err := parseOptions(cfg.Options)
	if err != nil {
		return err
	}
	if opts.groupID == "" {
		return errors.New("configuration property \"group.id\" must be set in consumer options")
	}
	brokers := splitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return ErrNoBrokers
	}

	sc := sarama.NewConfig()
	sc.Consumer.Return.Errors = true
	// offsets are stored locally and flushed on our own cadence
	sc.Consumer.Offsets.AutoCommit.Enable = false
	sc.Consumer.Offsets.Initial = opts.initialOffset
	if opts.clientID != "" {
		sc.ClientID = opts.clientID
	}
	if opts.sessionTimeout > 0 {
		sc.Consumer.Group.Session.Timeout = opts.sessionTimeout
	}
	if opts.hasVersion {
		sc.Version = opts.version
	}

	cl, err := sarama.NewClient(brokers, sc)
	if err != nil {
		return err
	}
	group, err := sarama.NewConsumerGroupFromClient(opts.groupID, cl)
	if err != nil {
		_ = cl.Close()
		return err
	}

	capacity := cfg.ChannelCapacity
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	d.cfg, d.opts = cfg, opts
	d.cl, d.group = cl, group
	d.bp = NewController(int64(capacity))
	d.offsets = NewOffsetStore(opts.commitInterval)
	d.records = make(chan Event, capacity)
	d.notices = make(chan EventType, 64)
	return nil
}

// Subscribe replaces the running consume session with one covering topics.
// The facade passes its full accumulated list on every call.
func (d *saramaDriver) Subscribe(topics []string) error {
	if d.closed.Load() {
		return errDriverClosed
	}
	if len(topics) == 0 {
		return errors.New("subscription list is empty")
	}
	// metadata refresh validates the topic names synchronously
	if err := d.cl.RefreshMetadata(topics...); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.consumeCancel != nil {
		d.consumeCancel()
		<-d.consumeDone
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.consumeCancel, d.consumeDone = cancel, done
	go d.consumeLoop(ctx, append([]string(nil), topics...), done)
	return nil
}

func (d *saramaDriver) consumeLoop(ctx context.Context, topics []string, done chan struct{}) {
	defer close(done)
	h := &groupHandler{d: d}
	for ctx.Err() == nil {
		err := d.group.Consume(ctx, topics, h)
		if err == nil {
			continue
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) || ctx.Err() != nil {
			return
		}
		logging.L().Error("sarama-driver: consume session failed", "error", err)
		d.notify(EventError)
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
	}
}

func (d *saramaDriver) notify(t EventType) {
	select {
	case d.notices <- t:
	default:
	}
}

func (d *saramaDriver) session() sarama.ConsumerGroupSession {
	d.sessMu.RLock()
	defer d.sessMu.RUnlock()
	return d.curSess
}

func (d *saramaDriver) setSession(s sarama.ConsumerGroupSession) {
	d.sessMu.Lock()
	d.curSess = s
	d.sessMu.Unlock()
}

func (d *saramaDriver) Poll(timeout time.Duration) error {
	if d.closed.Load() {
		return errDriverClosed
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	errs := d.group.Errors()
	var first error
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.L().Warn("sarama-driver: client error", "error", err)
			if first == nil {
				first = err
			}
		case t := <-d.notices:
			logging.L().Debug("sarama-driver: housekeeping event", "kind", t.String())
		case <-timer.C:
			d.maybeCommit()
			return first
		}
	}
}

func (d *saramaDriver) maybeCommit() {
	if !d.opts.autoCommit || d.offsets.Pending() == 0 {
		return
	}
	if !d.offsets.CommitDue() {
		return
	}
	if sess := d.session(); sess != nil {
		sess.Commit()
	}
}

func (d *saramaDriver) PollRecord() (Event, bool) {
	select {
	case ev := <-d.records:
		return ev, true
	default:
		return nil, false
	}
}

// StoreOffset marks the record's successor offset so a restart resumes after
// it, mapped onto sarama's mark/commit split.
func (d *saramaDriver) StoreOffset(topic string, partition int32, offset int64) error {
	if d.closed.Load() {
		return errDriverClosed
	}
	next := offset + 1
	d.offsets.Mark(topic, partition, next)
	if sess := d.session(); sess != nil {
		sess.MarkOffset(topic, partition, next, "")
	}
	return nil
}

func (d *saramaDriver) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	// flush stored offsets while the session is still live
	if d.opts.autoCommit && d.offsets != nil && d.offsets.Pending() > 0 {
		if sess := d.session(); sess != nil {
			sess.Commit()
		}
	}

	d.mu.Lock()
	if d.consumeCancel != nil {
		d.consumeCancel()
		<-d.consumeDone
		d.consumeCancel, d.consumeDone = nil, nil
	}
	d.mu.Unlock()

	var first error
	if d.group != nil {
		if err := d.group.Close(); err != nil {
			first = err
		}
	}
	if d.cl != nil && !d.cl.Closed() {
		if err := d.cl.Close(); err != nil && first == nil {
			first = err
		}
	}

	// release batches that never reached the drain loop
	if d.records != nil {
	drain:
		for {
			select {
			case ev := <-d.records:
				ev.Release()
			default:
				break drain
			}
		}
	}
	if d.bp != nil {
		d.bp.Close()
	}
	return first
}

type groupHandler struct {
	d *saramaDriver
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	d := h.d
	d.setSession(sess)
	// replay stored marks so the rebalanced session resumes correctly
	for topic, parts := range d.offsets.Snapshot() {
		for p, off := range parts {
			sess.MarkOffset(topic, p, off, "")
		}
	}
	d.notify(EventRebalance)
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.d.setSession(nil)
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	d := h.d
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := d.bp.Acquire(sess.Context()); err != nil {
				return nil
			}
			rec := &Record{
				Topic:     msg.Topic,
				Partition: msg.Partition,
				Offset:    msg.Offset,
				Key:       msg.Key,
				Value:     msg.Value,
			}
			ev := NewEvent(EventFetch, rec, func() { d.bp.Release(1) })
			select {
			case d.records <- ev:
			case <-sess.Context().Done():
				ev.Release()
				return nil
			}
		}
	}
}
