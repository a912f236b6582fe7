package worker

import (
	"time"

	"github.com/okian/firewatch/pkg/logger"
)

const defaultPublishTimeout = 10 * time.Second

// Option configures an alert worker.
type Option func(*InMemoryWorker)

// WithName names the worker in logs. Pool workers are numbered.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger replaces the worker's named logger.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPublishTimeout bounds a single Publish call so a stalled broker
// cannot block the queue. Non-positive values keep the default.
func WithPublishTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.publishTimeout = d
		}
	}
}
