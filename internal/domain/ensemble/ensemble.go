// Package ensemble averages classifier outputs into a single fire probability
// and maps it to a risk category.
package ensemble

import "fmt"

// Category is a discrete fire-risk level.
type Category string

// Risk categories, lowest to highest.
const (
	Low      Category = "LOW"
	Moderate Category = "MODERATE"
	High     Category = "HIGH"
	Extreme  Category = "EXTREME"
)

// Category lower bounds. Each bound is inclusive.
const (
	ModerateThreshold = 0.3
	HighThreshold     = 0.6
	ExtremeThreshold  = 0.8

	// HotspotThreshold is independent of the category bounds and is exclusive.
	HotspotThreshold = 0.7
)

// Model names as reported in Result.Models.
const (
	ModelRF  = "rf"
	ModelXGB = "xgb"
	ModelLGB = "lgb"
	ModelCat = "cat"
)

// ModelNames lists the ensemble members in aggregation order.
var ModelNames = []string{ModelRF, ModelXGB, ModelLGB, ModelCat}

var displayNames = map[string]string{
	ModelRF:  "Random Forest",
	ModelXGB: "XGBoost",
	ModelLGB: "LightGBM",
	ModelCat: "CatBoost",
}

// DisplayName returns the human-readable name of a model.
func DisplayName(model string) string {
	if n, ok := displayNames[model]; ok {
		return n
	}
	return model
}

// Probabilities holds the positive-class probability of each model.
type Probabilities struct {
	RF  float64
	XGB float64
	LGB float64
	Cat float64
}

// Result is the aggregated ensemble outcome.
type Result struct {
	Models   map[string]float64 `json:"models"`
	Ensemble float64            `json:"ensemble"`
	Category Category           `json:"category"`
	Hotspot  bool               `json:"hotspot"`
}

// Aggregate computes the unweighted mean of the four probabilities. Inputs
// are expected in [0,1]; anything else yields an undefined category.
func Aggregate(p Probabilities) Result {
	mean := (p.RF + p.XGB + p.LGB + p.Cat) / 4

	return Result{
		Models: map[string]float64{
			ModelRF:  p.RF,
			ModelXGB: p.XGB,
			ModelLGB: p.LGB,
			ModelCat: p.Cat,
		},
		Ensemble: mean,
		Category: Categorize(mean),
		Hotspot:  IsHotspot(mean),
	}
}

// Categorize maps a probability to its category. Boundary values belong to
// the higher category.
func Categorize(p float64) Category {
	switch {
	case p >= ExtremeThreshold:
		return Extreme
	case p >= HighThreshold:
		return High
	case p >= ModerateThreshold:
		return Moderate
	default:
		return Low
	}
}

// IsHotspot reports whether p is strictly above the hotspot threshold.
func IsHotspot(p float64) bool {
	return p > HotspotThreshold
}

// Color is the display color of the category.
func (c Category) Color() string {
	switch c {
	case Low:
		return "green"
	case Moderate:
		return "yellow"
	case High:
		return "orange"
	case Extreme:
		return "red"
	default:
		return "gray"
	}
}

// Banner is the status line shown for the category.
func (c Category) Banner() string {
	switch c {
	case Low:
		return "LOW FIRE RISK"
	case Moderate:
		return "MODERATE FIRE RISK"
	case High:
		return "HIGH FIRE RISK"
	case Extreme:
		return "EXTREME FIRE RISK DETECTED"
	default:
		return "UNKNOWN RISK"
	}
}

// Valid reports whether c is one of the four categories.
func (c Category) Valid() bool {
	switch c {
	case Low, Moderate, High, Extreme:
		return true
	}
	return false
}

// ConfidencePct is the ensemble probability as a percentage.
func (r Result) ConfidencePct() float64 { return r.Ensemble * 100 }

// Severity is the ensemble probability on an integer 0-100 scale.
func (r Result) Severity() int { return int(r.Ensemble * 100) }

// HotspotStatus is the display text of the hotspot flag.
func (r Result) HotspotStatus() string {
	if r.Hotspot {
		return "Satellite detected fire hotspot"
	}
	return "No hotspot detected"
}

// Row is one line of the prediction table.
type Row struct {
	Model       string  `json:"model"`
	Probability float64 `json:"probability"`
	Display     string  `json:"display"`
}

// Table returns one row per model followed by the ensemble row.
func (r Result) Table() []Row {
	rows := make([]Row, 0, len(ModelNames)+1)
	for _, name := range ModelNames {
		p := r.Models[name]
		rows = append(rows, Row{Model: DisplayName(name), Probability: p, Display: formatProb(p)})
	}
	rows = append(rows, Row{Model: "Final Ensemble", Probability: r.Ensemble, Display: formatProb(r.Ensemble)})
	return rows
}

func formatProb(p float64) string { return fmt.Sprintf("%.3f", p) }

// GaugeStep is a colored band of the 0-100 risk gauge.
type GaugeStep struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Color string `json:"color"`
}

// GaugeSteps returns the gauge bands aligned with the category bounds.
func GaugeSteps() []GaugeStep {
	return []GaugeStep{
		{From: 0, To: 30, Color: Low.Color()},
		{From: 30, To: 60, Color: Moderate.Color()},
		{From: 60, To: 80, Color: High.Color()},
		{From: 80, To: 100, Color: Extreme.Color()},
	}
}
