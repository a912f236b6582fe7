// Package types contains common types used across the application
package types

import (
	"maps"
	"time"

	"github.com/okian/firewatch/internal/domain/ensemble"
	"github.com/okian/firewatch/internal/domain/features"
	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/internal/domain/reading"
)

// Entry represents a hotspot ranking entry
type Entry struct {
	Rank        int       `json:"rank"`
	Cell        string    `json:"cell"`
	Probability float64   `json:"probability"`
	Category    string    `json:"category"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	AssessedAt  time.Time `json:"assessed_at"`
}

// NewEntry builds a ranking entry from a cell score.
func NewEntry(rank int, s model.CellScore) Entry {
	return Entry{
		Rank:        rank,
		Cell:        s.Cell,
		Probability: s.Probability,
		Category:    string(s.Category),
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		AssessedAt:  s.AssessedAt,
	}
}

// Assessment is the JSON view of an assessment
type Assessment struct {
	ID            string             `json:"id"`
	AssessedAt    time.Time          `json:"assessed_at"`
	Cell          string             `json:"cell"`
	Reading       reading.Reading    `json:"reading"`
	Features      map[string]float64 `json:"features"`
	Models        map[string]float64 `json:"models"`
	Ensemble      float64            `json:"ensemble"`
	Category      string             `json:"category"`
	Color         string             `json:"color"`
	Banner        string             `json:"banner"`
	ConfidencePct float64            `json:"confidence_pct"`
	Severity      int                `json:"severity"`
	Hotspot       bool               `json:"hotspot"`
	HotspotStatus string             `json:"hotspot_status"`
	Table         []ensemble.Row     `json:"table"`
}

// NewAssessment renders an assessment for clients.
func NewAssessment(a model.Assessment) Assessment {
	r := a.Result
	return Assessment{
		ID:            a.ID,
		AssessedAt:    a.AssessedAt,
		Cell:          a.Cell,
		Reading:       a.Reading,
		Features:      a.Features.Map(),
		Models:        maps.Clone(r.Models),
		Ensemble:      r.Ensemble,
		Category:      string(r.Category),
		Color:         r.Category.Color(),
		Banner:        r.Category.Banner(),
		ConfidencePct: r.ConfidencePct(),
		Severity:      r.Severity(),
		Hotspot:       r.Hotspot,
		HotspotStatus: r.HotspotStatus(),
		Table:         r.Table(),
	}
}

// ModelMember describes one ensemble slot.
type ModelMember struct {
	Slot        string `json:"slot"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Thresholds lists the category and hotspot bounds.
type Thresholds struct {
	Moderate float64 `json:"moderate"`
	High     float64 `json:"high"`
	Extreme  float64 `json:"extreme"`
	Hotspot  float64 `json:"hotspot"`
}

// ModelInfo describes the configured ensemble.
type ModelInfo struct {
	Models       []ModelMember        `json:"models"`
	FeatureOrder []string             `json:"feature_order"`
	Weights      features.WeightSet   `json:"weights"`
	Thresholds   Thresholds           `json:"thresholds"`
	Gauge        []ensemble.GaugeStep `json:"gauge"`
}

// NewModelInfo describes an ensemble whose members are named by slot.
func NewModelInfo(names map[string]string) ModelInfo {
	members := make([]ModelMember, 0, len(ensemble.ModelNames))
	for _, slot := range ensemble.ModelNames {
		members = append(members, ModelMember{
			Slot:        slot,
			Name:        names[slot],
			DisplayName: ensemble.DisplayName(slot),
		})
	}
	return ModelInfo{
		Models:       members,
		FeatureOrder: append([]string(nil), features.Names[:]...),
		Weights:      features.DefaultWeights(),
		Thresholds: Thresholds{
			Moderate: ensemble.ModerateThreshold,
			High:     ensemble.HighThreshold,
			Extreme:  ensemble.ExtremeThreshold,
			Hotspot:  ensemble.HotspotThreshold,
		},
		Gauge: ensemble.GaugeSteps(),
	}
}
