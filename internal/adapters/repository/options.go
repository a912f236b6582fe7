package repository

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithClock replaces the clock driving background updates.
func WithClock(clock clockwork.Clock) Option {
	return func(s *TreapStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}
