package mempool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gabapcia/poolhistory/internal/pkg/x/chflow"
)

var (
	// ErrRelayClosed is returned to the capture stage when the resolution
	// stage stopped consuming the relay queue.
	ErrRelayClosed = errors.New("relay queue consumer is gone")

	// ErrInvalidQueueCapacity is returned when the relay queue capacity is not positive.
	ErrInvalidQueueCapacity = errors.New("relay queue capacity must be positive")
)

// relayQueue is the bounded FIFO between the capture and resolution stages.
// Push blocks while the queue is full; nothing is ever dropped.
type relayQueue struct {
	items chan TimedHash
	done  chan struct{} // closed by the consumer when it exits

	closeOnce sync.Once
	stopOnce  sync.Once
}

func newRelayQueue(capacity int) (*relayQueue, error) {
	if capacity <= 0 {
		return nil, ErrInvalidQueueCapacity
	}

	return &relayQueue{
		items: make(chan TimedHash, capacity),
		done:  make(chan struct{}),
	}, nil
}

// Push appends h, waiting for room when the queue is full.
// It fails with ErrRelayClosed once the consumer has stopped.
func (q *relayQueue) Push(ctx context.Context, h TimedHash) error {
	select {
	case <-q.done:
		return ErrRelayClosed
	default:
	}

	if chflow.SendUntil(ctx, q.items, h, q.done) {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrRelayClosed
}

// Pop waits for the next item. ok is false when the queue was closed and
// drained or ctx is done; idle is true when nothing arrived within idleAfter.
// A non-positive idleAfter waits indefinitely.
func (q *relayQueue) Pop(ctx context.Context, idleAfter time.Duration) (h TimedHash, ok bool, idle bool) {
	return chflow.ReceiveTimeout(ctx, q.items, idleAfter)
}

// Close is called by the producer once it will not push anymore.
func (q *relayQueue) Close() {
	q.closeOnce.Do(func() { close(q.items) })
}

// Stop is called by the consumer once it will not pop anymore.
func (q *relayQueue) Stop() {
	q.stopOnce.Do(func() { close(q.done) })
}

// Len returns the number of queued items.
func (q *relayQueue) Len() int {
	return len(q.items)
}

// Cap returns the fixed capacity of the queue.
func (q *relayQueue) Cap() int {
	return cap(q.items)
}
