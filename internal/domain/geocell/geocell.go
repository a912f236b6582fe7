// Package geocell indexes readings by S2 cell so that assessments for nearby
// coordinates share a hotspot key.
package geocell

import (
	"errors"
	"fmt"

	"github.com/golang/geo/s2"
)

// DefaultLevel gives cells of roughly 1.3 km edge.
const DefaultLevel = 13

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0

var (
	// ErrInvalidLevel is returned for levels outside [0, 30].
	ErrInvalidLevel = errors.New("invalid cell level")
	// ErrInvalidToken is returned when a token does not decode to a valid cell.
	ErrInvalidToken = errors.New("invalid cell token")
)

// ValidateLevel checks that level is a valid S2 level.
func ValidateLevel(level int) error {
	if level < 0 || level > s2.MaxLevel {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return nil
}

// Token returns the token of the cell at level containing (lat, lon).
func Token(lat, lon float64, level int) string {
	ll := s2.LatLngFromDegrees(lat, lon)
	return s2.CellIDFromLatLng(ll).Parent(level).ToToken()
}

// Parse decodes a token.
func Parse(token string) (s2.CellID, error) {
	id := s2.CellIDFromToken(token)
	if !id.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return id, nil
}

// Center returns the center of the cell in degrees.
func Center(token string) (lat, lon float64, err error) {
	id, err := Parse(token)
	if err != nil {
		return 0, 0, err
	}
	ll := id.LatLng()
	return ll.Lat.Degrees(), ll.Lng.Degrees(), nil
}

// Level returns the level of the cell.
func Level(token string) (int, error) {
	id, err := Parse(token)
	if err != nil {
		return 0, err
	}
	return id.Level(), nil
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}
