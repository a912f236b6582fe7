package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	service "github.com/okian/firewatch/internal/app"
	"github.com/okian/firewatch/internal/adapters/repository"
	"github.com/okian/firewatch/internal/domain/ensemble"
	"github.com/okian/firewatch/internal/domain/reading"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with history, alerts and heuristic models", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		history, err := repository.OpenSQLiteHistory(ctx, ":memory:")
		So(err, ShouldBeNil)
		defer func() { _ = history.Close() }()

		clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
		pub := &recordingPublisher{}
		svc := service.New(
			service.WithHistory(history),
			service.WithPublisher(pub),
			service.WithClock(clock),
			service.WithCacheSize(16),
			service.WithAlertQueueSize(64),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the same location is assessed as conditions worsen", func() {
			r := reading.Default()
			var cells []string
			for _, temp := range []float64{20, 35, 50} {
				r.TemperatureC = temp
				r.HumidityPct = 100 - 2*temp
				a, err := svc.Assess(ctx, r)
				So(err, ShouldBeNil)
				cells = append(cells, a.Cell)
				clock.Advance(time.Minute)
			}

			Convey("Then every assessment lands in the same cell", func() {
				So(cells[1], ShouldEqual, cells[0])
				So(cells[2], ShouldEqual, cells[0])
			})

			Convey("Then the history lists them newest first", func() {
				past, err := svc.History(ctx, cells[0], 10)
				So(err, ShouldBeNil)
				So(len(past), ShouldEqual, 3)
				So(past[0].Reading.TemperatureC, ShouldEqual, 50.0)
				So(past[2].Reading.TemperatureC, ShouldEqual, 20.0)
				So(past[0].AssessedAt.After(past[1].AssessedAt), ShouldBeTrue)
				So(past[0].Result.Ensemble, ShouldBeGreaterThan, past[2].Result.Ensemble)
			})

			Convey("Then the ranking keeps only the latest probability", func() {
				entries, err := svc.Hotspots(ctx, 10)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				past, _ := svc.History(ctx, cells[0], 1)
				So(entries[0].Probability, ShouldEqual, past[0].Result.Ensemble)
			})
		})

		Convey("When many locations are assessed concurrently", func() {
			const n = 40
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					r := reading.Default()
					r.Latitude = -60 + float64(i)*3
					r.Longitude = -170 + float64(i)*8
					r.NDVI = float64(i%10) / 10
					r.TemperatureC = float64(i)
					if _, err := svc.Assess(ctx, r); err != nil {
						errs <- fmt.Errorf("reading %d: %w", i, err)
					}
				}(i)
			}
			wg.Wait()
			close(errs)

			Convey("Then every assessment succeeds and every cell is ranked", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				entries, err := svc.Hotspots(ctx, n)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, n)
				for i := 1; i < len(entries); i++ {
					So(entries[i-1].Probability, ShouldBeGreaterThanOrEqualTo, entries[i].Probability)
				}
			})

			Convey("Then hotspot alerts are published on shutdown", func() {
				entries, _ := svc.Hotspots(ctx, n)
				hot := 0
				for _, e := range entries {
					if ensemble.IsHotspot(e.Probability) {
						hot++
					}
				}
				svc.Stop()
				So(pub.count(), ShouldEqual, hot)
			})
		})
	})
}
