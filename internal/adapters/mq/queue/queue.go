// Package queue defines the contract for enqueuing and consuming
// participant-week response sets on their way to the scoring workers.
package queue

import (
	"context"
	"sync"

	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10_000
)

// ResponseSet is the payload type flowing through the queue.
type ResponseSet = model.ResponseSet

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a response set to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, set ResponseSet) bool

	// Dequeue returns a channel that receives response sets as they
	// become available. The channel closes when the queue is closed and
	// drained.
	Dequeue(ctx context.Context) <-chan ResponseSet

	// Len returns the current number of queued response sets.
	Len(ctx context.Context) int

	// Close stops the queue. After closing, nothing can be enqueued and
	// the dequeue channel closes once drained.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	sets     chan ResponseSet
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.sets = make(chan ResponseSet, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a response set to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, set ResponseSet) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.sets <- set:
		metrics.UpdateQueueSize(len(q.sets))
		return true
	case <-ctx.Done():
		return false
	default:
		return false // queue is full
	}
}

// Dequeue returns a channel that receives response sets.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan ResponseSet {
	out := make(chan ResponseSet)
	go func() {
		defer close(out)
		for set := range q.sets {
			select {
			case out <- set:
				metrics.UpdateQueueSize(len(q.sets))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued response sets.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.sets)
}

// Close stops the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	// Close the channel to signal consumers to stop once drained
	close(q.sets)
	q.closed = true

	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
