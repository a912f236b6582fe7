// Package reading defines the environmental reading collected per evaluation.
package reading

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange marks a reading field outside its documented range.
var ErrOutOfRange = errors.New("reading out of range")

// Documented input ranges.
const (
	MinLatitude     = -90.0
	MaxLatitude     = 90.0
	MinLongitude    = -180.0
	MaxLongitude    = 180.0
	MaxNDVI         = 1.0
	MaxTemperatureC = 50.0
	MaxHumidityPct  = 100.0
	MaxWindSpeed    = 50.0
	MaxRainfall     = 50.0
	MaxElevation    = 3000
	MaxSlope        = 60
	MaxAspect       = 360
)

// Reading is an immutable set of environmental inputs for one location.
// It is a comparable value and can be used as a map key.
type Reading struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	NDVI         float64 `json:"ndvi"`
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	WindSpeed    float64 `json:"wind_speed"`
	Rainfall     float64 `json:"rainfall"`
	Elevation    int     `json:"elevation"`
	Slope        int     `json:"slope"`
	Aspect       int     `json:"aspect"`
}

// Default returns the values the input collector starts from.
func Default() Reading {
	return Reading{
		Latitude:     20.0,
		Longitude:    78.0,
		NDVI:         0.5,
		TemperatureC: 30.0,
		HumidityPct:  50.0,
		WindSpeed:    10.0,
		Rainfall:     5.0,
		Elevation:    500,
		Slope:        10,
		Aspect:       180,
	}
}

// RangeError reports which field failed validation.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s=%v outside [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

type bound struct {
	field    string
	value    float64
	min, max float64
}

func (r Reading) bounds() []bound {
	return []bound{
		{"latitude", r.Latitude, MinLatitude, MaxLatitude},
		{"longitude", r.Longitude, MinLongitude, MaxLongitude},
		{"ndvi", r.NDVI, 0, MaxNDVI},
		{"temperature_c", r.TemperatureC, 0, MaxTemperatureC},
		{"humidity_pct", r.HumidityPct, 0, MaxHumidityPct},
		{"wind_speed", r.WindSpeed, 0, MaxWindSpeed},
		{"rainfall", r.Rainfall, 0, MaxRainfall},
		{"elevation", float64(r.Elevation), 0, MaxElevation},
		{"slope", float64(r.Slope), 0, MaxSlope},
		{"aspect", float64(r.Aspect), 0, MaxAspect},
	}
}

// Validate returns a *RangeError for the first field that is non-finite or
// outside its documented range.
func (r Reading) Validate() error {
	for _, b := range r.bounds() {
		if math.IsNaN(b.value) || b.value < b.min || b.value > b.max {
			return &RangeError{Field: b.field, Value: b.value, Min: b.min, Max: b.max}
		}
	}
	return nil
}

// Clamp returns a copy with every field forced into its documented range.
// NaN values fall back to the lower bound.
func (r Reading) Clamp() Reading {
	return Reading{
		Latitude:     clampFloat(r.Latitude, MinLatitude, MaxLatitude),
		Longitude:    clampFloat(r.Longitude, MinLongitude, MaxLongitude),
		NDVI:         clampFloat(r.NDVI, 0, MaxNDVI),
		TemperatureC: clampFloat(r.TemperatureC, 0, MaxTemperatureC),
		HumidityPct:  clampFloat(r.HumidityPct, 0, MaxHumidityPct),
		WindSpeed:    clampFloat(r.WindSpeed, 0, MaxWindSpeed),
		Rainfall:     clampFloat(r.Rainfall, 0, MaxRainfall),
		Elevation:    clampInt(r.Elevation, 0, MaxElevation),
		Slope:        clampInt(r.Slope, 0, MaxSlope),
		Aspect:       clampInt(r.Aspect, 0, MaxAspect),
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
