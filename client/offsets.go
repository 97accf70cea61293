package client

import (
	"sync"
	"time"
)

type topicPartition struct {
	topic     string
	partition int32
}

// OffsetStore keeps the locally stored (not yet committed) resume offset per
// topic/partition and decides when a driver should flush them to the broker.
// Storing and committing are two distinct steps of at-least-once delivery:
// the store is cheap and synchronous, the commit happens on a cadence.
type OffsetStore struct {
	commitEvery time.Duration

	mu         sync.Mutex
	marks      map[topicPartition]int64
	lastCommit time.Time
}

func NewOffsetStore(commitEvery time.Duration) *OffsetStore {
	return &OffsetStore{
		commitEvery: commitEvery,
		marks:       make(map[topicPartition]int64),
		lastCommit:  time.Now(),
	}
}

// Mark records offset as the next offset to resume from for topic/partition.
// Marks never move backwards.
func (s *OffsetStore) Mark(topic string, partition int32, offset int64) {
	tp := topicPartition{topic, partition}
	s.mu.Lock()
	if cur, ok := s.marks[tp]; !ok || offset > cur {
		s.marks[tp] = offset
	}
	s.mu.Unlock()
}

// Snapshot returns the current marks without clearing them; a driver replays
// them onto a fresh session after a rebalance.
func (s *OffsetStore) Snapshot() map[string]map[int32]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[int32]int64, len(s.marks))
	for tp, off := range s.marks {
		m := out[tp.topic]
		if m == nil {
			m = make(map[int32]int64)
			out[tp.topic] = m
		}
		m[tp.partition] = off
	}
	return out
}

func (s *OffsetStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marks)
}

// CommitDue reports whether a flush is due and, if so, restarts the cadence.
func (s *OffsetStore) CommitDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if now.Sub(s.lastCommit) < s.commitEvery {
		return false
	}
	s.lastCommit = now
	return true
}
