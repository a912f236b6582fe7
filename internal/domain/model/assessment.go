// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/firewatch/internal/domain/ensemble"
	"github.com/okian/firewatch/internal/domain/features"
	"github.com/okian/firewatch/internal/domain/reading"
)

// Assessment is one evaluated reading.
type Assessment struct {
	ID         string    // unique id per request, never cached
	AssessedAt time.Time // service clock at evaluation time
	Cell       string    // S2 cell token of the reading's coordinates
	Reading    reading.Reading
	Features   features.Vector
	Result     ensemble.Result
}

// CellScore is the latest assessment of a cell, used for hotspot ranking.
type CellScore struct {
	Cell        string
	Probability float64
	Category    ensemble.Category
	Latitude    float64
	Longitude   float64
	AssessedAt  time.Time
}

// Score projects an assessment onto its cell ranking entry.
func (a Assessment) Score() CellScore {
	return CellScore{
		Cell:        a.Cell,
		Probability: a.Result.Ensemble,
		Category:    a.Result.Category,
		Latitude:    a.Reading.Latitude,
		Longitude:   a.Reading.Longitude,
		AssessedAt:  a.AssessedAt,
	}
}
