// Package queue buffers hotspot assessments between the request path and the
// alert publishers.
//
// Enqueue never blocks: when the buffer is full the alert is rejected and
// the caller decides what to do with it.
package queue

import (
	"context"
	"sync"

	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Event is the payload flowing through the queue.
type Event = model.Assessment

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an assessment to the queue. It returns ErrFull or
	// ErrClosed when the assessment was not accepted.
	Enqueue(ctx context.Context, e Event) error

	// Dequeue returns a channel that receives queued assessments. The
	// channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the number of pending assessments.
	Len(ctx context.Context) int

	// Close stops accepting new assessments.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Event
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)
	metrics.UpdateAlertQueueSize(0)
	return q
}

// Enqueue adds an assessment to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordAlertDropped()
		metrics.RecordErrorByComponent("alert_queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordAlertDropped()
		metrics.RecordErrorByComponent("alert_queue", "context_cancelled")
		return err
	}

	select {
	case q.events <- e:
		metrics.UpdateAlertQueueSize(len(q.events))
		return nil
	default:
		metrics.RecordAlertDropped()
		metrics.RecordErrorByComponent("alert_queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive assessments as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for event := range q.events {
			select {
			case out <- event:
				metrics.UpdateAlertQueueSize(len(q.events))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued assessments.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.events)
	metrics.UpdateAlertQueueSize(size)
	return size
}

// Close stops accepting assessments; pending ones remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
