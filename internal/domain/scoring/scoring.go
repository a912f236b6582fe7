// Package scoring wires the feature builder, the scaler and the four
// classifiers into a single evaluation pipeline.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/firewatch/internal/domain/ensemble"
	"github.com/okian/firewatch/internal/domain/features"
	"github.com/okian/firewatch/internal/domain/reading"
)

// Scaler transforms a feature vector before inference. Implementations must
// accept features.Size values in features.Names order and return the same
// number of values.
type Scaler interface {
	Transform(ctx context.Context, in []float64) ([]float64, error)
}

// Classifier is a binary fire classifier.
type Classifier interface {
	// Name identifies the model in logs and metrics.
	Name() string
	// PredictProbability returns the positive-class probability in [0,1].
	PredictProbability(ctx context.Context, scaled []float64) (float64, error)
}

// Models holds the four ensemble members.
type Models struct {
	RF  Classifier
	XGB Classifier
	LGB Classifier
	Cat Classifier
}

// Validate checks that every member is set.
func (m Models) Validate() error {
	for _, e := range m.entries() {
		if e.clf == nil {
			return fmt.Errorf("%w: %s", ErrMissingModel, e.name)
		}
	}
	return nil
}

// Names returns the classifier name of each member keyed by ensemble slot.
func (m Models) Names() map[string]string {
	out := make(map[string]string, len(ensemble.ModelNames))
	for _, e := range m.entries() {
		if e.clf != nil {
			out[e.name] = e.clf.Name()
		}
	}
	return out
}

type member struct {
	name string
	clf  Classifier
}

func (m Models) entries() []member {
	return []member{
		{ensemble.ModelRF, m.RF},
		{ensemble.ModelXGB, m.XGB},
		{ensemble.ModelLGB, m.LGB},
		{ensemble.ModelCat, m.Cat},
	}
}

// Observer is notified after each classifier call.
type Observer func(model string, took time.Duration, err error)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver registers a per-inference callback.
func WithObserver(obs Observer) Option {
	return func(p *Pipeline) {
		if obs != nil {
			p.observe = obs
		}
	}
}

// Evaluation is the output of a single pipeline run.
type Evaluation struct {
	Features features.Vector
	Result   ensemble.Result
}

// Pipeline evaluates readings. It is safe for concurrent use when its
// scaler and classifiers are.
type Pipeline struct {
	scaler  Scaler
	models  Models
	observe Observer
}

// NewPipeline builds a pipeline. A nil scaler means no scaling.
func NewPipeline(scaler Scaler, models Models, opts ...Option) (*Pipeline, error) {
	if err := models.Validate(); err != nil {
		return nil, err
	}
	if scaler == nil {
		scaler = IdentityScaler{}
	}
	p := &Pipeline{
		scaler:  scaler,
		models:  models,
		observe: func(string, time.Duration, error) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Models returns the ensemble members.
func (p *Pipeline) Models() Models { return p.models }

// Evaluate builds the features of r, scales them and aggregates the four
// classifier outputs. The reading is not validated here.
func (p *Pipeline) Evaluate(ctx context.Context, r reading.Reading) (Evaluation, error) {
	vec := features.Build(r)

	scaled, err := p.scaler.Transform(ctx, vec.Slice())
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %w", ErrScale, err)
	}
	if len(scaled) != features.Size {
		return Evaluation{}, fmt.Errorf("%w: scaler returned %d values", ErrShape, len(scaled))
	}

	var probs [4]float64
	for i, e := range p.models.entries() {
		start := time.Now()
		prob, err := e.clf.PredictProbability(ctx, scaled)
		if err == nil && (math.IsNaN(prob) || prob < 0 || prob > 1) {
			err = fmt.Errorf("%w: %v", ErrProbability, prob)
		}
		p.observe(e.name, time.Since(start), err)
		if err != nil {
			return Evaluation{}, fmt.Errorf("%w: %s: %w", ErrInference, e.name, err)
		}
		probs[i] = prob
	}

	return Evaluation{
		Features: vec,
		Result: ensemble.Aggregate(ensemble.Probabilities{
			RF:  probs[0],
			XGB: probs[1],
			LGB: probs[2],
			Cat: probs[3],
		}),
	}, nil
}
