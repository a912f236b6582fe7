// Package features derives the engineered fire-risk feature vector from an
// environmental reading.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/firewatch/internal/domain/reading"
)

// Normalisation maxima used by the risk sub-terms.
const (
	maxTemperatureC = 50.0
	maxHumidityPct  = 100.0
	maxWindSpeed    = 50.0
	maxRainfall     = 50.0
	maxSlope        = 60.0

	// Size is the length of the feature vector.
	Size = 15

	weightTolerance = 1e-9
)

// Positions in the feature vector.
const (
	IdxNDVI = iota
	IdxElevation
	IdxSlope
	IdxAspect
	IdxTemperatureC
	IdxHumidityPct
	IdxRainfall
	IdxWindSpeed
	IdxVegDryness
	IdxTempRisk
	IdxHumidityRisk
	IdxWindRisk
	IdxRainRisk
	IdxTerrainRisk
	IdxFireRiskScore
)

// Names lists the feature names in vector order. Scalers and models are
// trained against this exact order.
var Names = [Size]string{
	"ndvi",
	"elevation",
	"slope",
	"aspect",
	"temperature_c",
	"humidity_pct",
	"rainfall",
	"wind_speed",
	"veg_dryness",
	"temp_risk",
	"humidity_risk",
	"wind_risk",
	"rain_risk",
	"terrain_risk",
	"fire_risk_score",
}

// ErrInvalidWeights is returned when a weight set is not a convex combination.
var ErrInvalidWeights = errors.New("invalid feature weights")

// WeightSet holds the coefficients of the heuristic fire risk score.
type WeightSet struct {
	VegDryness float64 `json:"veg_dryness"`
	Temp       float64 `json:"temp_risk"`
	Humidity   float64 `json:"humidity_risk"`
	Wind       float64 `json:"wind_risk"`
	Rain       float64 `json:"rain_risk"`
	Terrain    float64 `json:"terrain_risk"`
}

// weights is the weight set used by Build. It is never reassigned.
var weights = DefaultWeights()

// DefaultWeights returns a copy of the fixed weights of the fire risk score.
func DefaultWeights() WeightSet {
	return WeightSet{
		VegDryness: 0.30,
		Temp:       0.25,
		Humidity:   0.15,
		Wind:       0.15,
		Rain:       0.10,
		Terrain:    0.05,
	}
}

// Sum adds the weights in score order.
func (w WeightSet) Sum() float64 {
	return w.VegDryness + w.Temp + w.Humidity + w.Wind + w.Rain + w.Terrain
}

// Validate checks that the weights are non-negative and sum to one.
func (w WeightSet) Validate() error {
	for _, v := range []float64{w.VegDryness, w.Temp, w.Humidity, w.Wind, w.Rain, w.Terrain} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
	}
	return nil
}

// Score combines the six risk sub-terms.
func (w WeightSet) Score(vegDryness, tempRisk, humidityRisk, windRisk, rainRisk, terrainRisk float64) float64 {
	return w.VegDryness*vegDryness +
		w.Temp*tempRisk +
		w.Humidity*humidityRisk +
		w.Wind*windRisk +
		w.Rain*rainRisk +
		w.Terrain*terrainRisk
}

// Vector is the engineered feature vector in Names order.
type Vector [Size]float64

// Build derives the feature vector from r. It performs no validation:
// out-of-range input yields out-of-range features.
func Build(r reading.Reading) Vector {
	vegDryness := 1 - r.NDVI
	tempRisk := r.TemperatureC / maxTemperatureC
	humidityRisk := 1 - r.HumidityPct/maxHumidityPct
	windRisk := r.WindSpeed / maxWindSpeed
	rainRisk := 1 - r.Rainfall/maxRainfall
	terrainRisk := float64(r.Slope) / maxSlope

	return Vector{
		IdxNDVI:          r.NDVI,
		IdxElevation:     float64(r.Elevation),
		IdxSlope:         float64(r.Slope),
		IdxAspect:        float64(r.Aspect),
		IdxTemperatureC:  r.TemperatureC,
		IdxHumidityPct:   r.HumidityPct,
		IdxRainfall:      r.Rainfall,
		IdxWindSpeed:     r.WindSpeed,
		IdxVegDryness:    vegDryness,
		IdxTempRisk:      tempRisk,
		IdxHumidityRisk:  humidityRisk,
		IdxWindRisk:      windRisk,
		IdxRainRisk:      rainRisk,
		IdxTerrainRisk:   terrainRisk,
		IdxFireRiskScore: weights.Score(vegDryness, tempRisk, humidityRisk, windRisk, rainRisk, terrainRisk),
	}
}

// Slice returns a copy of the vector as a slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// Map returns the features keyed by name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Size)
	for i, name := range Names {
		out[name] = v[i]
	}
	return out
}

// RiskScore returns the heuristic fire risk score.
func (v Vector) RiskScore() float64 { return v[IdxFireRiskScore] }
