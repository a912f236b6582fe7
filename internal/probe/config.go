package probe

import (
	"time"

	"github.com/okian/firewatch/internal/domain/reading"
)

// Config holds configuration for a probe run
type Config struct {
	BaseURL     string        // Base URL of the service
	NumReadings int           // Number of readings to generate
	TopN        int           // Number of hotspots to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Seed        uint64        // Generator seed; 0 picks a random one
	Heuristic   bool          // Service runs the heuristic backend
	OutputFile  string        // Output file for readings and results
}

// Result pairs a submitted reading with the service response.
type Result struct {
	Reading    reading.Reading `json:"reading"`
	Assessment Assessment      `json:"assessment"`
}

// Assessment is the subset of the /assess response the probe checks.
type Assessment struct {
	ID       string             `json:"id"`
	Cell     string             `json:"cell"`
	Features map[string]float64 `json:"features"`
	Models   map[string]float64 `json:"models"`
	Ensemble float64            `json:"ensemble"`
	Category string             `json:"category"`
	Hotspot  bool               `json:"hotspot"`
}

// Entry represents a hotspot ranking entry
type Entry struct {
	Rank        int     `json:"rank"`
	Cell        string  `json:"cell"`
	Probability float64 `json:"probability"`
	Category    string  `json:"category"`
}

// Stats holds probe statistics
type Stats struct {
	ReadingsGenerated int
	ReadingsSubmitted int
	ReadingsAssessed  int
	ReadingsFailed    int
	Hotspots          int
	Mismatches        int
	HotspotEntries    int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
