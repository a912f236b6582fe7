package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/firewatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.ModelBackend, convey.ShouldEqual, config.BackendHeuristic)
			convey.So(cfg.CacheSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.CellLevel, convey.ShouldEqual, 13)
			convey.So(cfg.MaxHotspotLimit, convey.ShouldEqual, 100)
			convey.So(cfg.HistoryPath, convey.ShouldBeEmpty)
			convey.So(cfg.Brokers(), convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"unknown backend":   func(c *config.Config) { c.ModelBackend = "tensorflow" },
			"onnx without dir":  func(c *config.Config) { c.ModelBackend = config.BackendONNX; c.ModelDir = "" },
			"onnx w/o scaler":   func(c *config.Config) { c.ModelBackend = config.BackendONNX; c.ScalerPath = "" },
			"cell level":        func(c *config.Config) { c.CellLevel = 31 },
			"hotspot limit":     func(c *config.Config) { c.MaxHotspotLimit = 0 },
			"history limit":     func(c *config.Config) { c.MaxHistoryLimit = -1 },
			"alert workers":     func(c *config.Config) { c.AlertWorkers = 0 },
			"brokers w/o topic": func(c *config.Config) { c.KafkaBrokers = "k:9092"; c.KafkaTopic = "" },
		}

		for name, mutate := range cases {
			cfg := config.New(context.Background())
			mutate(cfg)

			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a broker list with blanks", t, func() {
		cfg := config.New(context.Background())
		cfg.KafkaBrokers = " k1:9092, ,k2:9092 "

		convey.Convey("Then blanks are dropped", func() {
			convey.So(cfg.Brokers(), convey.ShouldResemble, []string{"k1:9092", "k2:9092"})
		})
	})
}
