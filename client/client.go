// Package client abstracts the native broker client behind a small
// queue-oriented surface: a blocking housekeeping drive, a non-blocking
// record dequeue, an offset store, and a one-shot close. Drivers register
// themselves by name; the consumer facade owns exactly one Client.
package client

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoBrokers is returned by a driver when the broker list contains no
// usable address.
var ErrNoBrokers = errors.New("no valid brokers specified")

// EventType tags one entry drawn from a native queue.
type EventType int

const (
	// EventFetch carries one fetched record.
	EventFetch EventType = iota
	// EventError carries a client-internal error notification.
	EventError
	// EventRebalance signals a group assignment change.
	EventRebalance
)

func (t EventType) String() string {
	switch t {
	case EventFetch:
		return "Fetch"
	case EventError:
		return "Error"
	case EventRebalance:
		return "Rebalance"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Record is an immutable view of one fetched message. Key and Value are
// valid only while the owning Event is alive.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Event is one unit drawn from a native queue. Release frees the backing
// batch exactly once; double release is a no-op.
type Event interface {
	Type() EventType
	// Record returns the fetched record, non-nil only for EventFetch.
	Record() *Record
	Release()
}

type event struct {
	typ     EventType
	rec     *Record
	once    sync.Once
	release func()
}

// NewEvent wraps a record (may be nil for non-fetch kinds) with its release
// hook. The hook runs at most once no matter how often Release is called.
func NewEvent(typ EventType, rec *Record, release func()) Event {
	return &event{typ: typ, rec: rec, release: release}
}

func (e *event) Type() EventType { return e.typ }
func (e *event) Record() *Record { return e.rec }

func (e *event) Release() {
	e.once.Do(func() {
		if e.release != nil {
			e.release()
		}
	})
}

// Client is the native consumer handle. Exactly one consumer facade owns a
// Client; only the facade's housekeeping loop calls Poll and only its drain
// loop calls PollRecord, so drivers need not serialize the two queues
// against each other.
type Client interface {
	// Configure allocates the native resources. Nothing may leak if it
	// fails partway.
	Configure(Config) error

	// Subscribe applies the full topic list to the native client.
	Subscribe(topics []string) error

	// Poll drives client-internal callbacks (errors, statistics,
	// rebalances), blocking up to timeout. It never yields records.
	Poll(timeout time.Duration) error

	// PollRecord dequeues one event from the record queue without
	// blocking; ok is false when the queue is empty.
	PollRecord() (ev Event, ok bool)

	// StoreOffset marks offset on topic/partition as the restart point.
	// Committing it to the broker happens on the driver's own schedule.
	StoreOffset(topic string, partition int32, offset int64) error

	// Close leaves the group, commits pending offsets and releases all
	// native resources. Idempotent.
	Close() error
}

/*──────── registry ───────*/

// Factory builds a Client (e.g. the sarama driver).
type Factory func() Client

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register is called from each driver's init() or from main.
func Register(name string, f Factory) {
	regMu.Lock()
	registry[name] = f
	regMu.Unlock()
}

// New returns an unconfigured driver by name.
func New(name string) (Client, error) {
	regMu.RLock()
	f, ok := registry[name]
	regMu.RUnlock()
	if ok {
		return f(), nil
	}
	return nil, fmt.Errorf("client: unsupported driver %q", name)
}
