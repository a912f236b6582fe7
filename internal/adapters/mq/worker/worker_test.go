package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/firewatch/internal/adapters/mq/queue"
	worker "github.com/okian/firewatch/internal/adapters/mq/worker"
	model "github.com/okian/firewatch/internal/domain/model"
	logging "github.com/okian/firewatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	eventChan chan queue.Event
	closeOnce sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{eventChan: make(chan queue.Event, 10)}
}

func (mq *mockQueue) Dequeue(_ context.Context) <-chan queue.Event {
	return mq.eventChan
}

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.eventChan) })
	return nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []string
	fail      map[string]error
	delay     time.Duration
	block     map[string]bool
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{fail: make(map[string]error), block: make(map[string]bool)}
}

func (mp *mockPublisher) Publish(ctx context.Context, a model.Assessment) error {
	if mp.block[a.ID] {
		<-ctx.Done()
		return ctx.Err()
	}
	if mp.delay > 0 {
		time.Sleep(mp.delay)
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if err, ok := mp.fail[a.ID]; ok {
		return err
	}
	mp.published = append(mp.published, a.ID)
	return nil
}

func (mp *mockPublisher) ids() []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]string(nil), mp.published...)
}

func hot(id string) model.Assessment {
	return model.Assessment{ID: id, Cell: "89c25"}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		pub := newMockPublisher()

		convey.Convey("When creating a worker with custom options", func() {
			w := worker.NewInMemoryWorker(q, pub,
				worker.WithName("test-worker"),
				worker.WithLogger(logging.Named("test")),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			pub.fail["a2"] = errors.New("broker down")
			w := worker.NewInMemoryWorker(q, pub)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.Convey("And alerts are queued", func() {
				q.eventChan <- hot("a1")
				q.eventChan <- hot("a2")
				q.eventChan <- hot("a3")
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then successful ones are published and failures skipped", func() {
					convey.So(pub.ids(), convey.ShouldResemble, []string{"a1", "a3"})
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := w.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When a publish call stalls", func() {
			pub.block["stuck"] = true
			w := worker.NewInMemoryWorker(q, pub, worker.WithPublishTimeout(20*time.Millisecond))
			finished := make(chan struct{})
			go func() {
				w.Run(context.Background())
				close(finished)
			}()
			q.eventChan <- hot("stuck")
			q.eventChan <- hot("next")
			_ = q.Close()

			convey.Convey("Then it is abandoned after the timeout and later alerts still go out", func() {
				select {
				case <-finished:
				case <-time.After(2 * time.Second):
				}
				convey.So(pub.ids(), convey.ShouldResemble, []string{"next"})
			})
		})

		convey.Convey("When the queue is closed", func() {
			w := worker.NewInMemoryWorker(q, pub)
			finished := make(chan struct{})
			go func() {
				w.Run(context.Background())
				close(finished)
			}()
			q.eventChan <- hot("a1")
			_ = q.Close()

			convey.Convey("Then the worker drains and exits", func() {
				select {
				case <-finished:
				case <-time.After(time.Second):
				}
				convey.So(pub.ids(), convey.ShouldResemble, []string{"a1"})
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool over an in-memory queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		pub := newMockPublisher()

		convey.Convey("When creating a pool with default count", func() {
			pool := worker.NewPool(0, q, pub)

			convey.Convey("Then it has at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		convey.Convey("When alerts are queued and the pool is drained", func() {
			pool := worker.NewPool(3, q, pub)
			pool.Start(context.Background())

			ctx := context.Background()
			for _, id := range []string{"a1", "a2", "a3", "a4", "a5"} {
				convey.So(q.Enqueue(ctx, hot(id)), convey.ShouldBeNil)
			}

			drainCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			err := pool.Drain(drainCtx)

			convey.Convey("Then every alert is published exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pub.ids(), convey.ShouldHaveLength, 5)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When draining takes longer than the deadline", func() {
			pub.delay = 200 * time.Millisecond
			pool := worker.NewPool(1, q, pub)
			pool.Start(context.Background())
			_ = q.Enqueue(context.Background(), hot("slow"))

			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			err := pool.Drain(drainCtx)

			convey.Convey("Then a timeout error is returned", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When stopping a started pool", func() {
			pool := worker.NewPool(2, q, pub)
			pool.Start(context.Background())

			convey.Convey("Then it stops without panicking", func() {
				convey.So(func() { pool.Stop() }, convey.ShouldNotPanic)
			})
		})
	})
}
