package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/firewatch/internal/domain/features"
)

// HeuristicClassifier is an in-process stand-in for a trained model. It maps
// the fire_risk_score position of its input through a logistic curve:
//
//	p = 1 / (1 + exp(-slope * (x - offset)))
//
// With the identity scaler x is the raw score in [0,1].
type HeuristicClassifier struct {
	name   string
	slope  float64
	offset float64
}

// HeuristicOption configures a HeuristicClassifier.
type HeuristicOption func(*HeuristicClassifier)

// WithCurve sets the logistic slope and midpoint.
func WithCurve(slope, offset float64) HeuristicOption {
	return func(h *HeuristicClassifier) {
		if slope > 0 {
			h.slope = slope
		}
		h.offset = offset
	}
}

// NewHeuristicClassifier creates a classifier with a default curve centred on
// a score of 0.5.
func NewHeuristicClassifier(name string, opts ...HeuristicOption) *HeuristicClassifier {
	h := &HeuristicClassifier{name: name, slope: 10, offset: 0.5}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements Classifier.
func (h *HeuristicClassifier) Name() string { return h.name }

// PredictProbability implements Classifier.
func (h *HeuristicClassifier) PredictProbability(ctx context.Context, scaled []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(scaled) != features.Size {
		return 0, fmt.Errorf("%w: got %d values", ErrShape, len(scaled))
	}
	x := scaled[features.IdxFireRiskScore]
	return 1 / (1 + math.Exp(-h.slope*(x-h.offset))), nil
}

// HeuristicModels returns four heuristic members with slightly different
// curves so that the ensemble mean differs from each member.
func HeuristicModels() Models {
	return Models{
		RF:  NewHeuristicClassifier("heuristic-rf", WithCurve(10, 0.50)),
		XGB: NewHeuristicClassifier("heuristic-xgb", WithCurve(12, 0.48)),
		LGB: NewHeuristicClassifier("heuristic-lgb", WithCurve(11, 0.50)),
		Cat: NewHeuristicClassifier("heuristic-cat", WithCurve(9, 0.52)),
	}
}
