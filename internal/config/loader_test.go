package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/firewatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars(t)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars(t)
			t.Setenv("FIREWATCH_ADDR", ":8080")
			t.Setenv("FIREWATCH_CACHE_SIZE", "42")
			t.Setenv("FIREWATCH_CELL_LEVEL", "10")
			t.Setenv("FIREWATCH_KAFKA_BROKERS", "k1:9092,k2:9092")
			t.Setenv("FIREWATCH_HISTORY_PATH", "/tmp/history.db")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheSize, convey.ShouldEqual, 42)
				convey.So(cfg.CellLevel, convey.ShouldEqual, 10)
				convey.So(cfg.Brokers(), convey.ShouldResemble, []string{"k1:9092", "k2:9092"})
				convey.So(cfg.HistoryPath, convey.ShouldEqual, "/tmp/history.db")
				convey.So(cfg.KafkaTopic, convey.ShouldEqual, "fire-alerts")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars(t)
			path := writeConfigFile(t, `
addr: ":9090"
model_backend: onnx
model_dir: /opt/models
scaler_path: /opt/models/scaler.yaml
max_hotspot_limit: 25
log_format: json
`)
			t.Setenv("FIREWATCH_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ModelBackend, convey.ShouldEqual, config.BackendONNX)
				convey.So(cfg.ModelDir, convey.ShouldEqual, "/opt/models")
				convey.So(cfg.ScalerPath, convey.ShouldEqual, "/opt/models/scaler.yaml")
				convey.So(cfg.MaxHotspotLimit, convey.ShouldEqual, 25)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.CacheSize, convey.ShouldEqual, 10_000)
			})

			convey.Convey("And env vars take precedence over the file", func() {
				t.Setenv("FIREWATCH_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.MaxHotspotLimit, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When the config file is missing", func() {
			clearConfigEnvVars(t)
			t.Setenv("FIREWATCH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded values are invalid", func() {
			clearConfigEnvVars(t)
			t.Setenv("FIREWATCH_MODEL_BACKEND", "magic")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the onnx backend has no scaler", func() {
			clearConfigEnvVars(t)
			t.Setenv("FIREWATCH_MODEL_BACKEND", "onnx")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "scaler_path")
				convey.So(cfg, convey.ShouldBeNil)
			})

			convey.Convey("And a scaler path makes it valid", func() {
				t.Setenv("FIREWATCH_SCALER_PATH", "/opt/models/scaler.yaml")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ScalerPath, convey.ShouldEqual, "/opt/models/scaler.yaml")
			})
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				if key := kv[:i]; len(key) > len(config.EnvPrefix) && key[:len(config.EnvPrefix)] == config.EnvPrefix {
					t.Setenv(key, "")
					_ = os.Unsetenv(key)
				}
				break
			}
		}
	}
}
