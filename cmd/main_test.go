package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	app "github.com/okian/firewatch/internal/app"
	"github.com/okian/firewatch/internal/config"
	"github.com/okian/firewatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func initTestLogger(t *testing.T) logger.Logger {
	t.Helper()
	if err := logger.Init(logger.WithOutput(&bytes.Buffer{})); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	return logger.Get()
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			t.Setenv("FIREWATCH_ADDR", ":8089")
			t.Setenv("FIREWATCH_CACHE_SIZE", "64")
			t.Setenv("FIREWATCH_ALERT_WORKERS", "3")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8089")
				convey.So(cfg.CacheSize, convey.ShouldEqual, 64)
				convey.So(cfg.AlertWorkers, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the address is empty", func() {
			t.Setenv("FIREWATCH_ADDR", "")

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestBuildService(t *testing.T) {
	log := initTestLogger(t)

	convey.Convey("Given a default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When the service is built", func() {
			svc, cleanup, err := buildService(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			defer cleanup()

			convey.Convey("Then it uses the heuristic backend without history or alerts", func() {
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				defer svc.Stop()

				stats := svc.GetStats()
				convey.So(stats["started"], convey.ShouldEqual, true)
				convey.So(stats["historyEnabled"], convey.ShouldEqual, false)
				convey.So(stats["alertsEnabled"], convey.ShouldEqual, false)
				convey.So(stats["cacheSize"], convey.ShouldEqual, cfg.CacheSize)
			})
		})

		convey.Convey("When a history path is configured", func() {
			cfg.HistoryPath = filepath.Join(t.TempDir(), "history.db")
			svc, cleanup, err := buildService(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then history is enabled", func() {
				convey.So(svc.HistoryEnabled(), convey.ShouldBeTrue)
				cleanup()
			})
		})

		convey.Convey("When the scaler file is missing", func() {
			cfg.ScalerPath = filepath.Join(t.TempDir(), "missing.json")
			svc, _, err := buildService(ctx, cfg, log)

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	log := initTestLogger(t)

	convey.Convey("Given a started service behind the application mux", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		svc := app.New(app.WithLogger(log))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, svc, cfg)

		convey.Convey("When the default reading is assessed", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assess", nil))

			convey.Convey("Then an assessment is returned", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

				var body map[string]any
				convey.So(json.Unmarshal(rec.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body, convey.ShouldContainKey, "ensemble")
			})
		})

		convey.Convey("When docs, models and the page are requested", func() {
			for _, path := range []string{"/openapi.yaml", "/api-docs", "/models", "/stats", "/"} {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	log := initTestLogger(t)

	convey.Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := app.New(app.WithLogger(log))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then the updater returns once the context is done", func() {
			runCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startServiceMetricsUpdater(runCtx, svc)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("metrics updater did not stop")
			}
		})
	})
}

func TestMain(m *testing.M) {
	// Keep a developer's .env or config file out of the tests.
	_ = os.Unsetenv("FIREWATCH_CONFIG")
	os.Exit(m.Run())
}
