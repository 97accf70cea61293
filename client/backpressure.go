package client

import (
	"context"
	"errors"
	"sync"
)

var errControllerClosed = errors.New("backpressure controller closed")

// Controller caps how many fetched events may be in flight at once: one
// token per event, taken on admission and returned by the event's Release.
type Controller struct {
	capacity int64

	mu     sync.Mutex
	tokens int64
	cond   *sync.Cond
	closed bool
}

func NewController(cap int64) *Controller {
	c := &Controller{capacity: cap, tokens: cap}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Acquire takes one token, blocking while none are available. It returns
// early when ctx is cancelled or the controller is closed.
func (c *Controller) Acquire(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		c.cond.Broadcast()
	})
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.tokens == 0 && !c.closed && ctx.Err() == nil {
		c.cond.Wait()
	}
	if c.closed {
		return errControllerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.tokens--
	return nil
}

func (c *Controller) TryAcquire(n int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.tokens < n {
		return false
	}
	c.tokens -= n
	return true
}

func (c *Controller) Release(n int64) {
	c.mu.Lock()
	c.tokens += n
	if c.tokens > c.capacity {
		c.tokens = c.capacity
	}
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cond.Broadcast()
}
