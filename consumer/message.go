package consumer

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"kafkabridge/client"
)

// Message owns one fetched record plus the native event it was drawn from
// (1:1, so releasing the message releases the backing batch). Accessors are
// valid until Release; after that the backing memory may be gone.
type Message struct {
	rec *client.Record
	ev  client.Event

	released atomic.Bool
	cleanup  runtime.Cleanup
}

func newMessage(ev client.Event) *Message {
	m := &Message{rec: ev.Record(), ev: ev}
	// backstop only: correctness requires an explicit Release on every path
	m.cleanup = runtime.AddCleanup(m, func(ev client.Event) { ev.Release() }, ev)
	return m
}

func (m *Message) Topic() string    { return m.rec.Topic }
func (m *Message) Partition() int32 { return m.rec.Partition }
func (m *Message) Offset() int64    { return m.rec.Offset }

// Key returns the record key. A nil or zero-length key reports ok=false
// rather than an empty slice.
func (m *Message) Key() ([]byte, bool) {
	if len(m.rec.Key) == 0 {
		return nil, false
	}
	return m.rec.Key, true
}

// Value returns the record payload, with the same absence rule as Key.
func (m *Message) Value() ([]byte, bool) {
	if len(m.rec.Value) == 0 {
		return nil, false
	}
	return m.rec.Value, true
}

// String renders all fields in a fixed format, substituting the literal
// "NULL" for an absent key or value.
func (m *Message) String() string {
	key := "NULL"
	if k, ok := m.Key(); ok {
		key = string(k)
	}
	value := "NULL"
	if v, ok := m.Value(); ok {
		value = string(v)
	}
	return fmt.Sprintf("Kafka Consumer Message: topic=%s partition=%d offset=%d key=%s value=%s",
		m.rec.Topic, m.rec.Partition, m.rec.Offset, key, value)
}

// Release frees the owned event. Safe to call more than once; only the
// first call has any effect.
func (m *Message) Release() {
	if !m.released.CompareAndSwap(false, true) {
		return
	}
	m.cleanup.Stop()
	m.ev.Release()
}
