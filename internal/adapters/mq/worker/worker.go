// Package worker publishes queued hotspot alerts in the background so that
// slow brokers never hold up an assessment request.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/pkg/logger"
	"github.com/okian/firewatch/pkg/metrics"
)

const (
	workerShutdownTimeout = 5 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.Assessment

// Publisher delivers a hotspot alert.
type Publisher interface {
	Publish(ctx context.Context, a model.Assessment) error
}

// Queue defines how workers receive alerts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker drains alerts from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called,
	// or the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for an in-process queue.
type InMemoryWorker struct {
	queue          Queue
	publisher      Publisher
	name           string
	publishTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, publisher Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:          queue,
		publisher:      publisher,
		name:           "alert-worker",
		publishTimeout: defaultPublishTimeout,
		shutdown:       make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, event); err != nil {
				w.logger.Error(ctx, "alert publish failed",
					logger.String("id", event.ID),
					logger.String("cell", event.Cell),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	ctx, cancel := context.WithTimeout(ctx, w.publishTimeout)
	defer cancel()

	start := time.Now()
	err := w.publisher.Publish(ctx, event)
	metrics.RecordAlertDispatchLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordAlertError()
		metrics.RecordErrorByComponent("alert_worker", "publish_error")
		metrics.RecordErrorByType("publish_error", "medium")
		return fmt.Errorf("publish alert %s: %w", event.ID, err)
	}
	metrics.RecordAlertPublished()
	return nil
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A count below one uses one worker per CPU.
func NewPool(workerCount int, queue Queue, publisher Publisher) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("alert-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(queue, publisher, WithName("alert-worker-"+strconv.Itoa(i)))
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
	metrics.UpdateAlertWorkers(len(p.workers))
}

// Stop stops all workers without draining the queue.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		if err := worker.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateAlertWorkers(0)
}

// Drain closes the queue and waits until the workers have published every
// pending alert or ctx expires.
func (p *Pool) Drain(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	defer metrics.UpdateAlertWorkers(0)
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			return fmt.Errorf("drain timed out: %w", ctx.Err())
		}
	}
	return nil
}
