package probe

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/okian/firewatch/internal/domain/reading"
	"github.com/okian/firewatch/pkg/logger"
)

// Reading profiles. Dry profiles push the fire risk score up, wet ones down.
const (
	profileUniform = iota
	profileDry
	profileWet
	profileTypical
	profileCount
)

// generator draws readings from a seeded source. It is not safe for
// concurrent use.
type generator struct {
	rnd *rand.Rand
}

func newGenerator(seed uint64) *generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// between returns a value in [lo, hi).
func (g *generator) between(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

func (g *generator) intBetween(lo, hi int) int {
	return lo + g.rnd.IntN(hi-lo+1)
}

// next returns a reading inside the documented ranges.
func (g *generator) next() reading.Reading {
	r := reading.Reading{
		Latitude:  g.between(reading.MinLatitude, reading.MaxLatitude),
		Longitude: g.between(reading.MinLongitude, reading.MaxLongitude),
		Elevation: g.intBetween(0, reading.MaxElevation),
		Aspect:    g.intBetween(0, reading.MaxAspect),
	}

	switch g.rnd.IntN(profileCount) {
	case profileDry:
		r.NDVI = g.between(0, 0.3)
		r.TemperatureC = g.between(35, reading.MaxTemperatureC)
		r.HumidityPct = g.between(0, 25)
		r.WindSpeed = g.between(20, reading.MaxWindSpeed)
		r.Rainfall = g.between(0, 3)
		r.Slope = g.intBetween(20, reading.MaxSlope)
	case profileWet:
		r.NDVI = g.between(0.6, reading.MaxNDVI)
		r.TemperatureC = g.between(0, 20)
		r.HumidityPct = g.between(60, reading.MaxHumidityPct)
		r.WindSpeed = g.between(0, 10)
		r.Rainfall = g.between(15, reading.MaxRainfall)
		r.Slope = g.intBetween(0, 15)
	case profileTypical:
		r.NDVI = g.between(0.3, 0.7)
		r.TemperatureC = g.between(20, 35)
		r.HumidityPct = g.between(30, 70)
		r.WindSpeed = g.between(5, 20)
		r.Rainfall = g.between(2, 15)
		r.Slope = g.intBetween(5, 30)
	default:
		r.NDVI = g.between(0, reading.MaxNDVI)
		r.TemperatureC = g.between(0, reading.MaxTemperatureC)
		r.HumidityPct = g.between(0, reading.MaxHumidityPct)
		r.WindSpeed = g.between(0, reading.MaxWindSpeed)
		r.Rainfall = g.between(0, reading.MaxRainfall)
		r.Slope = g.intBetween(0, reading.MaxSlope)
	}
	return r
}

// generateReadings creates config.NumReadings valid readings.
func generateReadings(ctx context.Context, config *Config, stats *Stats) ([]reading.Reading, error) {
	logger.Get().Info(ctx, "generating readings", logger.Int("count", config.NumReadings))

	g := newGenerator(config.Seed)
	out := make([]reading.Reading, config.NumReadings)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		r := g.next()
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("generated reading %d: %w", i, err)
		}
		out[i] = r
	}

	stats.ReadingsGenerated = len(out)
	return out, nil
}
