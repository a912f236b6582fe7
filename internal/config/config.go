// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and FIREWATCH_* environment variables on top.
// - Errors wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/firewatch/internal/domain/geocell"
)

// Model backends.
const (
	BackendHeuristic = "heuristic"
	BackendONNX      = "onnx"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ModelBackend selects the classifier implementation: heuristic or onnx.
	ModelBackend string `koanf:"model_backend"`

	// ModelDir holds rf_model.onnx, xgb_model.onnx, lgb_model.onnx and
	// cat_model.onnx for the onnx backend.
	ModelDir string `koanf:"model_dir"`

	// ONNXLibPath points at the ONNX Runtime shared library.
	ONNXLibPath string `koanf:"onnx_lib_path"`

	// ScalerPath is a YAML file with fitted scaler parameters. Empty means
	// features are passed to the models unscaled.
	ScalerPath string `koanf:"scaler_path"`

	// CacheSize bounds the assessment memo cache; <= 0 is unbounded.
	CacheSize int `koanf:"cache_size"`

	// CellLevel is the S2 level used to group readings into hotspot cells.
	CellLevel int `koanf:"cell_level"`

	// MaxHotspotLimit caps GET /hotspots?limit.
	MaxHotspotLimit int `koanf:"max_hotspot_limit"`

	// HistoryPath is the SQLite database for assessment history. Empty
	// disables history.
	HistoryPath string `koanf:"history_path"`

	// MaxHistoryLimit caps GET /history/{cell}?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`

	// KafkaBrokers is a comma-separated broker list. Empty disables alerts.
	KafkaBrokers string `koanf:"kafka_brokers"`

	// KafkaTopic receives hotspot alerts.
	KafkaTopic string `koanf:"kafka_topic"`

	// AlertQueueSize bounds the alerts waiting to be published.
	AlertQueueSize int `koanf:"alert_queue_size"`

	// AlertWorkers is the number of alert publishing goroutines.
	AlertWorkers int `koanf:"alert_workers"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		ModelBackend:    BackendHeuristic,
		ModelDir:        "models",
		CacheSize:       10_000,
		CellLevel:       geocell.DefaultLevel,
		MaxHotspotLimit: 100,
		MaxHistoryLimit: 100,
		KafkaTopic:      "fire-alerts",
		AlertQueueSize:  1024,
		AlertWorkers:    2,
	}
}

// Brokers splits KafkaBrokers.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.ModelBackend {
	case BackendHeuristic:
	case BackendONNX:
		if c.ModelDir == "" {
			return fmt.Errorf("%w: model_dir is required for the onnx backend", ErrInvalidConfig)
		}
		// Trained models expect standardized input.
		if c.ScalerPath == "" {
			return fmt.Errorf("%w: scaler_path is required for the onnx backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown model_backend %q", ErrInvalidConfig, c.ModelBackend)
	}
	if err := geocell.ValidateLevel(c.CellLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxHotspotLimit < 1 {
		return fmt.Errorf("%w: max_hotspot_limit must be positive", ErrInvalidConfig)
	}
	if c.MaxHistoryLimit < 1 {
		return fmt.Errorf("%w: max_history_limit must be positive", ErrInvalidConfig)
	}
	if c.AlertQueueSize < 1 || c.AlertWorkers < 1 {
		return fmt.Errorf("%w: alert_queue_size and alert_workers must be positive", ErrInvalidConfig)
	}
	if len(c.Brokers()) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("%w: kafka_topic is required when brokers are set", ErrInvalidConfig)
	}
	return nil
}
