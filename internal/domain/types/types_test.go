package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/firewatch/internal/domain/ensemble"
	"github.com/okian/firewatch/internal/domain/features"
	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/internal/domain/reading"
	types "github.com/okian/firewatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a cell score", t, func() {
		ts := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
		s := model.CellScore{Cell: "3bb5", Probability: 0.82, Category: ensemble.Extreme, Latitude: 20, Longitude: 78, AssessedAt: ts}

		Convey("When building an entry", func() {
			e := types.NewEntry(1, s)

			Convey("Then it carries the rank and score", func() {
				So(e.Rank, ShouldEqual, 1)
				So(e.Cell, ShouldEqual, "3bb5")
				So(e.Probability, ShouldEqual, 0.82)
				So(e.Category, ShouldEqual, "EXTREME")
				So(e.AssessedAt, ShouldEqual, ts)
			})
		})
	})
}

func TestNewAssessment(t *testing.T) {
	Convey("Given an assessment", t, func() {
		r := reading.Default()
		a := model.Assessment{
			ID:         "id-1",
			AssessedAt: time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC),
			Cell:       "3bb5",
			Reading:    r,
			Features:   features.Build(r),
			Result:     ensemble.Aggregate(ensemble.Probabilities{RF: 0.6, XGB: 0.6, LGB: 0.8, Cat: 0.6}),
		}

		Convey("When rendering it", func() {
			v := types.NewAssessment(a)

			Convey("Then presentation fields derive from the result", func() {
				So(v.Ensemble, ShouldEqual, 0.65)
				So(v.Category, ShouldEqual, "HIGH")
				So(v.Color, ShouldEqual, "orange")
				So(v.Banner, ShouldEqual, "HIGH FIRE RISK")
				So(v.Hotspot, ShouldBeFalse)
				So(v.HotspotStatus, ShouldEqual, "No hotspot detected")
				So(v.Severity, ShouldEqual, 65)
				So(len(v.Table), ShouldEqual, 5)
				So(len(v.Features), ShouldEqual, features.Size)
			})

			Convey("Then the model map is not shared", func() {
				v.Models["rf"] = 0
				So(a.Result.Models["rf"], ShouldEqual, 0.6)
			})

			Convey("Then it encodes with snake_case keys", func() {
				b, err := json.Marshal(v)
				So(err, ShouldBeNil)
				var m map[string]any
				So(json.Unmarshal(b, &m), ShouldBeNil)
				So(m, ShouldContainKey, "confidence_pct")
				So(m, ShouldContainKey, "hotspot_status")
				So(m["reading"].(map[string]any)["temperature_c"], ShouldEqual, 30.0)
			})
		})
	})
}

func TestModelInfo(t *testing.T) {
	Convey("Given classifier names by slot", t, func() {
		info := types.NewModelInfo(map[string]string{"rf": "rf_model.onnx", "cat": "cat_model.onnx"})

		Convey("Then members follow aggregation order", func() {
			So(len(info.Models), ShouldEqual, 4)
			So(info.Models[0].Slot, ShouldEqual, "rf")
			So(info.Models[0].Name, ShouldEqual, "rf_model.onnx")
			So(info.Models[0].DisplayName, ShouldEqual, "Random Forest")
			So(info.Models[1].Name, ShouldBeEmpty)
			So(info.Models[3].DisplayName, ShouldEqual, "CatBoost")
		})

		Convey("Then thresholds and feature order are reported", func() {
			So(info.Thresholds.Moderate, ShouldEqual, 0.3)
			So(info.Thresholds.Hotspot, ShouldEqual, 0.7)
			So(info.FeatureOrder[0], ShouldEqual, "ndvi")
			So(info.FeatureOrder[features.Size-1], ShouldEqual, "fire_risk_score")
			So(info.Weights.Sum(), ShouldEqual, 1.0)
			So(len(info.Gauge), ShouldEqual, 4)
		})

		Convey("Then the feature order is a copy", func() {
			info.FeatureOrder[0] = "changed"
			So(features.Names[0], ShouldEqual, "ndvi")
		})
	})
}
