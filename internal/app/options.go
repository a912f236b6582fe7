package service

import (
	"github.com/jonboulle/clockwork"

	"github.com/okian/firewatch/internal/adapters/repository"
	"github.com/okian/firewatch/internal/domain/scoring"
	"github.com/okian/firewatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithModels sets the four ensemble members. Without it the service uses
// the heuristic stand-ins.
func WithModels(models scoring.Models) Option {
	return func(s *Service) {
		s.models = models
	}
}

// WithScaler sets the feature scaler applied before inference.
func WithScaler(scaler scoring.Scaler) Option {
	return func(s *Service) {
		if scaler != nil {
			s.scaler = scaler
		}
	}
}

// WithClock replaces the clock used to stamp assessments.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithCacheSize bounds the assessment cache; <= 0 is unbounded.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		s.cacheSize = size
	}
}

// WithCellLevel sets the S2 level used for hotspot cells.
func WithCellLevel(level int) Option {
	return func(s *Service) {
		s.cellLevel = level
	}
}

// WithHotspotStore replaces the default in-memory hotspot ranking.
func WithHotspotStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.hotspots = store
		}
	}
}

// WithHistory enables the assessment history.
func WithHistory(history repository.History) Option {
	return func(s *Service) {
		s.history = history
	}
}

// WithPublisher enables hotspot alerts.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithAlertQueueSize sets how many alerts may wait for a publisher.
func WithAlertQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.alertQueueSize = size
		}
	}
}

// WithAlertWorkers sets the number of alert publishing goroutines.
func WithAlertWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.alertWorkers = count
		}
	}
}
