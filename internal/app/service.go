// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	eventqueue "github.com/okian/firewatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/firewatch/internal/adapters/mq/worker"
	"github.com/okian/firewatch/internal/adapters/repository"
	"github.com/okian/firewatch/internal/domain/cache"
	"github.com/okian/firewatch/internal/domain/geocell"
	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/internal/domain/reading"
	"github.com/okian/firewatch/internal/domain/scoring"
	"github.com/okian/firewatch/internal/domain/types"
	"github.com/okian/firewatch/pkg/logger"
	"github.com/okian/firewatch/pkg/metrics"
)

const (
	defaultCacheSize      = 10_000
	defaultAlertQueueSize = 1024
	defaultAlertWorkers   = 2
	drainTimeout          = 10 * time.Second
)

// Publisher delivers hotspot alerts.
type Publisher interface {
	Publish(ctx context.Context, a model.Assessment) error
}

// Service evaluates readings and keeps the hotspot ranking current.
type Service struct {
	mu sync.RWMutex

	// Core components
	pipeline  *scoring.Pipeline
	cache     cache.Cache[reading.Reading, scoring.Evaluation]
	hotspots  repository.Store
	ownsStore bool
	history   repository.History
	publisher Publisher
	alerts    *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	cancel    context.CancelFunc

	// Configuration
	models         scoring.Models
	scaler         scoring.Scaler
	clock          clockwork.Clock
	cacheSize      int
	cellLevel      int
	alertQueueSize int
	alertWorkers   int

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		scaler:         scoring.IdentityScaler{},
		clock:          clockwork.NewRealClock(),
		cacheSize:      defaultCacheSize,
		cellLevel:      geocell.DefaultLevel,
		alertQueueSize: defaultAlertQueueSize,
		alertWorkers:   defaultAlertWorkers,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the pipeline and starts background components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting assessment service...")

	if err := geocell.ValidateLevel(s.cellLevel); err != nil {
		return err
	}

	models := s.models
	if unset(models) {
		models = scoring.HeuristicModels()
		s.logger.Warn(ctx, "no models configured, using heuristic classifiers")
	}
	pipeline, err := scoring.NewPipeline(s.scaler, models, scoring.WithObserver(observeInference))
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	s.pipeline = pipeline
	s.models = models

	s.cache = cache.New[reading.Reading, scoring.Evaluation](cache.WithMaxSize(s.cacheSize))

	if s.hotspots == nil {
		s.hotspots = repository.NewTreapStore(ctx)
		s.ownsStore = true
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	if s.publisher != nil {
		s.alerts = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.alertQueueSize))
		s.pool = workerpool.NewPool(s.alertWorkers, s.alerts, s.publisher)
		s.pool.Start(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Int("cacheSize", s.cacheSize),
		logger.Int("cellLevel", s.cellLevel),
		logger.Bool("history", s.history != nil),
		logger.Bool("alerts", s.publisher != nil),
		logger.Any("models", models.Names()),
	)
	return nil
}

// Stop publishes pending alerts and shuts down background components.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping assessment service...")

	if s.pool != nil {
		drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
		if err := s.pool.Drain(drainCtx); err != nil {
			s.logger.Warn(ctx, "pending alerts not published", logger.Error(err))
		}
		cancel()
		s.pool, s.alerts = nil, nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	if s.ownsStore {
		if closer, ok := s.hotspots.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		s.hotspots = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "assessment service stopped")
}

func unset(m scoring.Models) bool {
	return m.RF == nil && m.XGB == nil && m.LGB == nil && m.Cat == nil
}

func observeInference(model string, took time.Duration, err error) {
	metrics.RecordInference(model, float64(took.Microseconds())/1000, err != nil)
}

// Assess validates r, evaluates it and records the outcome. Out-of-range
// readings fail with an error wrapping reading.ErrOutOfRange.
func (s *Service) Assess(ctx context.Context, r reading.Reading) (model.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Assessment{}, ErrNotStarted
	}

	start := s.clock.Now()
	defer func() {
		metrics.RecordAssessmentLatency(float64(s.clock.Since(start).Microseconds()) / 1000)
	}()

	if err := r.Validate(); err != nil {
		metrics.RecordValidationError()
		return model.Assessment{}, err
	}

	eval, err := s.evaluate(ctx, r)
	if err != nil {
		metrics.RecordErrorByComponent("scoring", "inference_error")
		metrics.RecordErrorByType("inference_error", "high")
		s.logger.Error(ctx, "evaluation failed", logger.Error(err))
		return model.Assessment{}, err
	}

	a := model.Assessment{
		ID:         uuid.NewString(),
		AssessedAt: s.clock.Now().UTC(),
		Cell:       geocell.Token(r.Latitude, r.Longitude, s.cellLevel),
		Reading:    r,
		Features:   eval.Features,
		Result:     eval.Result,
	}

	// The store records its own update latency.
	if err := s.hotspots.Record(ctx, a.Score()); err != nil {
		metrics.RecordErrorByComponent("hotspot_store", "record_error")
		return model.Assessment{}, fmt.Errorf("record hotspot: %w", err)
	}

	s.appendHistory(ctx, a)
	s.enqueueAlert(ctx, a)

	metrics.RecordAssessment(string(a.Result.Category), a.Result.Ensemble, a.Result.Hotspot)
	for name, p := range a.Result.Models {
		metrics.RecordModelProbability(name, p)
	}

	s.logger.Debug(ctx, "assessment computed",
		logger.String("id", a.ID),
		logger.String("cell", a.Cell),
		logger.Float64("ensemble", a.Result.Ensemble),
		logger.String("category", string(a.Result.Category)),
		logger.Bool("hotspot", a.Result.Hotspot),
	)
	return a, nil
}

// evaluate consults the cache before running the pipeline. The returned
// evaluation never shares its model map with the cache.
func (s *Service) evaluate(ctx context.Context, r reading.Reading) (scoring.Evaluation, error) {
	if eval, ok := s.cache.Get(ctx, r); ok {
		metrics.RecordCacheHit()
		eval.Result.Models = maps.Clone(eval.Result.Models)
		return eval, nil
	}
	metrics.RecordCacheMiss()

	eval, err := s.pipeline.Evaluate(ctx, r)
	if err != nil {
		return scoring.Evaluation{}, err
	}

	s.cache.Put(ctx, r, eval)
	metrics.UpdateCacheSize(s.cache.Len())

	eval.Result.Models = maps.Clone(eval.Result.Models)
	return eval, nil
}

func (s *Service) appendHistory(ctx context.Context, a model.Assessment) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, a); err != nil {
		metrics.RecordHistoryError()
		metrics.RecordErrorByComponent("history", "append_error")
		s.logger.Warn(ctx, "history append failed", logger.String("id", a.ID), logger.Error(err))
		return
	}
	metrics.RecordHistoryAppend()
}

func (s *Service) enqueueAlert(ctx context.Context, a model.Assessment) {
	if s.alerts == nil || !a.Result.Hotspot {
		return
	}
	if err := s.alerts.Enqueue(ctx, a); err != nil {
		s.logger.Warn(ctx, "hotspot alert dropped",
			logger.String("id", a.ID),
			logger.String("cell", a.Cell),
			logger.Error(err),
		)
	}
}

// Hotspots returns the n highest-risk cells.
func (s *Service) Hotspots(ctx context.Context, n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}

	entries, err := s.hotspots.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.NewEntry(e.Rank, e.CellScore)
	}
	return out, nil
}

// Location returns the ranking entry of a cell.
func (s *Service) Location(ctx context.Context, cell string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Entry{}, ErrNotStarted
	}

	e, err := s.hotspots.Rank(ctx, cell)
	if err != nil {
		return types.Entry{}, err
	}
	return types.NewEntry(e.Rank, e.CellScore), nil
}

// History returns up to limit past assessments of a cell, newest first.
func (s *Service) History(ctx context.Context, cell string, limit int) ([]model.Assessment, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListByCell(ctx, cell, limit)
}

// HistoryEnabled reports whether assessments are persisted.
func (s *Service) HistoryEnabled() bool { return s.history != nil }

// Models describes the configured ensemble.
func (s *Service) Models() types.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := s.models
	if unset(models) {
		models = scoring.HeuristicModels()
	}
	return types.NewModelInfo(models.Names())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"cacheSize":      s.cacheSize,
		"cellLevel":      s.cellLevel,
		"historyEnabled": s.history != nil,
		"alertsEnabled":  s.publisher != nil,
	}

	if s.started {
		cells := s.hotspots.Count(ctx)
		cached := s.cache.Len()

		stats["trackedCells"] = cells
		stats["cachedReadings"] = cached

		metrics.UpdateTrackedCells(cells)
		metrics.UpdateCacheSize(cached)

		if s.alerts != nil {
			stats["alertQueueLength"] = s.alerts.Len(ctx)
			stats["alertWorkers"] = s.pool.Size()
		}
	}

	return stats
}
