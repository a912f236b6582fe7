package scoring

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/firewatch/internal/domain/features"
)

// IdentityScaler passes features through unchanged.
type IdentityScaler struct{}

// Transform returns a copy of in.
func (IdentityScaler) Transform(_ context.Context, in []float64) ([]float64, error) {
	if len(in) != features.Size {
		return nil, fmt.Errorf("%w: got %d values", ErrShape, len(in))
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out, nil
}

// StandardScaler applies z = (x - mean) / scale per feature.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// scalerParams is the on-disk layout of a fitted standard scaler.
type scalerParams struct {
	FeatureOrder []string  `koanf:"feature_order"`
	Mean         []float64 `koanf:"mean"`
	Scale        []float64 `koanf:"scale"`
}

// NewStandardScaler validates the parameters. Zero scales are treated as one.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) != features.Size || len(scale) != features.Size {
		return nil, fmt.Errorf("%w: mean %d, scale %d, want %d", ErrShape, len(mean), len(scale), features.Size)
	}
	s := &StandardScaler{
		Mean:  append([]float64(nil), mean...),
		Scale: append([]float64(nil), scale...),
	}
	for i, v := range s.Scale {
		if v == 0 {
			s.Scale[i] = 1
		}
	}
	return s, nil
}

// LoadStandardScaler reads scaler parameters from a YAML file. The file's
// feature_order must match features.Names exactly.
func LoadStandardScaler(path string) (*StandardScaler, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load scaler %s: %w", path, err)
	}

	var p scalerParams
	if err := k.UnmarshalWithConf("", &p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode scaler %s: %w", path, err)
	}

	if len(p.FeatureOrder) != features.Size {
		return nil, fmt.Errorf("%w: %d features, want %d", ErrFeatureOrder, len(p.FeatureOrder), features.Size)
	}
	for i, name := range p.FeatureOrder {
		if name != features.Names[i] {
			return nil, fmt.Errorf("%w: position %d is %q, want %q", ErrFeatureOrder, i, name, features.Names[i])
		}
	}
	return NewStandardScaler(p.Mean, p.Scale)
}

// Transform standardises in.
func (s *StandardScaler) Transform(ctx context.Context, in []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrShape, len(in), len(s.Mean))
	}
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = (x - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
