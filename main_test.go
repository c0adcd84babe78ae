package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/microscaling/freshcheck/inspector"
)

type countingChecker struct {
	calls int32
}

func (c *countingChecker) CheckAll(_ context.Context) (inspector.Report, error) {
	if atomic.AddInt32(&c.calls, 1)%2 == 0 {
		return inspector.Report{}, errors.New("container runtime unavailable")
	}
	return inspector.Report{TotalContainers: 1}, nil
}

func TestStartPoller(t *testing.T) {
	c := &countingChecker{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		startPoller(ctx, c, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(&c.calls) < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Poller didn't stop")
	}

	// A failed check doesn't stop the poller
	if n := atomic.LoadInt32(&c.calls); n < 3 {
		t.Errorf("Expected at least 3 checks, got %d", n)
	}
}
