package model_test

import (
	"testing"
	"time"

	"github.com/okian/firewatch/internal/domain/ensemble"
	"github.com/okian/firewatch/internal/domain/features"
	model "github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/internal/domain/reading"
	"github.com/smartystreets/goconvey/convey"
)

func TestAssessment_Score(t *testing.T) {
	convey.Convey("Given an assessment", t, func() {
		r := reading.Default()
		ts := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
		a := model.Assessment{
			ID:         "a-1",
			AssessedAt: ts,
			Cell:       "3bb5",
			Reading:    r,
			Features:   features.Build(r),
			Result:     ensemble.Aggregate(ensemble.Probabilities{RF: 0.9, XGB: 0.9, LGB: 0.9, Cat: 0.9}),
		}

		convey.Convey("When projecting it to a cell score", func() {
			s := a.Score()

			convey.Convey("Then the ranking fields are carried over", func() {
				convey.So(s.Cell, convey.ShouldEqual, "3bb5")
				convey.So(s.Probability, convey.ShouldEqual, a.Result.Ensemble)
				convey.So(s.Category, convey.ShouldEqual, ensemble.Extreme)
				convey.So(s.Latitude, convey.ShouldEqual, 20.0)
				convey.So(s.Longitude, convey.ShouldEqual, 78.0)
				convey.So(s.AssessedAt, convey.ShouldEqual, ts)
			})
		})
	})

	convey.Convey("Given a zero assessment", t, func() {
		s := model.Assessment{}.Score()

		convey.Convey("Then the score is zero", func() {
			convey.So(s.Cell, convey.ShouldEqual, "")
			convey.So(s.Probability, convey.ShouldEqual, 0.0)
			convey.So(s.AssessedAt.IsZero(), convey.ShouldBeTrue)
		})
	})
}
