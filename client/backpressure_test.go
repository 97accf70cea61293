package client

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestController_TryAcquire(t *testing.T) {
	c := NewController(2)
	if !c.TryAcquire(1) || !c.TryAcquire(1) {
		t.Fatal("tokens under capacity must be grantable")
	}
	if c.TryAcquire(1) {
		t.Fatal("exhausted controller granted a token")
	}
	c.Release(1)
	if !c.TryAcquire(1) {
		t.Fatal("released token not grantable")
	}
}

func TestController_AcquireBlocksUntilRelease(t *testing.T) {
	c := NewController(1)
	if err := c.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	var got int32
	done := make(chan error, 1)
	go func() {
		err := c.Acquire(context.Background())
		atomic.StoreInt32(&got, 1)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&got) != 0 {
		t.Fatal("acquire returned without an available token")
	}
	c.Release(1)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("acquire after release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("acquire still blocked after release")
	}
}

func TestController_AcquireCancelled(t *testing.T) {
	c := NewController(1)
	if err := c.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Acquire(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("cancelled acquire returned nil")
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled acquire still blocked")
	}
}

func TestController_CloseUnblocks(t *testing.T) {
	c := NewController(1)
	if err := c.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- c.Acquire(context.Background()) }()
	time.Sleep(10 * time.Millisecond)
	c.Close()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("acquire on closed controller returned nil")
		}
	case <-time.After(time.Second):
		t.Fatal("acquire still blocked after close")
	}
}
