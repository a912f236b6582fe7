package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/firewatch/internal/adapters/alerts"
	"github.com/okian/firewatch/internal/adapters/http/api"
	"github.com/okian/firewatch/internal/adapters/http/site"
	"github.com/okian/firewatch/internal/adapters/http/swagger"
	"github.com/okian/firewatch/internal/adapters/onnx"
	"github.com/okian/firewatch/internal/adapters/repository"
	app "github.com/okian/firewatch/internal/app"
	"github.com/okian/firewatch/internal/config"
	"github.com/okian/firewatch/internal/domain/scoring"
	"github.com/okian/firewatch/pkg/logger"
	"github.com/okian/firewatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// A missing .env is fine; anything else is worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("failed to read .env: " + err.Error() + "\n")
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "firewatch stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go metrics.RunSystemCollector(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildService creates the service and its adapters from cfg. cleanup
// releases the adapters and must run after the service has stopped.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn(ctx, "cleanup failed", logger.Error(err))
			}
		}
	}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithCacheSize(cfg.CacheSize),
		app.WithCellLevel(cfg.CellLevel),
		app.WithAlertQueueSize(cfg.AlertQueueSize),
		app.WithAlertWorkers(cfg.AlertWorkers),
	}

	if cfg.ScalerPath != "" {
		scaler, err := scoring.LoadStandardScaler(cfg.ScalerPath)
		if err != nil {
			return nil, func() {}, err
		}
		opts = append(opts, app.WithScaler(scaler))
		log.Info(ctx, "loaded scaler", logger.String("path", cfg.ScalerPath))
	}

	if cfg.ModelBackend == config.BackendONNX {
		set, err := onnx.LoadSet(cfg.ModelDir, cfg.ONNXLibPath)
		if err != nil {
			return nil, func() {}, err
		}
		closers = append(closers, set.Close)
		opts = append(opts, app.WithModels(set.Models()))
		log.Info(ctx, "loaded onnx models", logger.String("dir", cfg.ModelDir))
	}

	if cfg.HistoryPath != "" {
		history, err := repository.OpenSQLiteHistory(ctx, cfg.HistoryPath)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, history.Close)
		opts = append(opts, app.WithHistory(history))
		log.Info(ctx, "history enabled", logger.String("path", cfg.HistoryPath))
	}

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher, err := alerts.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, publisher.Close)
		opts = append(opts, app.WithPublisher(publisher))
		log.Info(ctx, "hotspot alerts enabled",
			logger.Any("brokers", brokers),
			logger.String("topic", cfg.KafkaTopic),
		)
	}

	return app.New(opts...), cleanup, nil
}

// newMux registers docs, API and the assessment page.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc,
		api.WithMaxHotspotLimit(cfg.MaxHotspotLimit),
		api.WithMaxHistoryLimit(cfg.MaxHistoryLimit),
	)
	apiServer.Register(ctx, mux)

	site.Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the tracked-cell and cache gauges.
			_ = svc.GetStats()
		}
	}
}
