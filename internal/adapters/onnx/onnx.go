// Package onnx runs the four ensemble classifiers exported to ONNX with
// sklearn-onnx (zipmap disabled, so probabilities come back as a [N,2]
// float tensor).
package onnx

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/okian/firewatch/internal/domain/features"
	"github.com/okian/firewatch/internal/domain/scoring"
)

// Model file names inside the model directory.
const (
	RFFile  = "rf_model.onnx"
	XGBFile = "xgb_model.onnx"
	LGBFile = "lgb_model.onnx"
	CatFile = "cat_model.onnx"

	probabilityClasses = 2
	positiveClass      = 1
)

var (
	// ErrModelShape is returned when a model's inputs or outputs do not match
	// the feature vector contract.
	ErrModelShape = errors.New("onnx: unexpected model signature")
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// Init initializes the ONNX Runtime environment. Only the first call has any
// effect.
func Init(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Model is a single ONNX classifier. ONNX Runtime sessions allow concurrent
// Run calls.
type Model struct {
	name    string
	input   string
	output  string
	session *ort.DynamicAdvancedSession
}

var _ scoring.Classifier = (*Model)(nil)

// Load opens the model at path. Init must have been called.
func Load(path, name string) (*Model, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info %s: %w", path, err)
	}

	input, err := pickInput(inputs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	output, err := pickOutput(outputs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(path, []string{input}, []string{output}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session %s: %w", path, err)
	}

	return &Model{name: name, input: input, output: output, session: session}, nil
}

// pickInput requires a single float tensor input whose last dimension is
// the feature count.
func pickInput(inputs []ort.InputOutputInfo) (string, error) {
	if len(inputs) != 1 {
		return "", fmt.Errorf("%w: %d inputs, want 1", ErrModelShape, len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return "", fmt.Errorf("%w: input %q is not float32", ErrModelShape, in.Name)
	}
	dims := in.Dimensions
	if len(dims) != 2 || dims[1] != features.Size {
		return "", fmt.Errorf("%w: input %q has shape %v, want [N,%d]", ErrModelShape, in.Name, dims, features.Size)
	}
	return in.Name, nil
}

// pickOutput finds the [N,2] float probability output.
func pickOutput(outputs []ort.InputOutputInfo) (string, error) {
	for _, out := range outputs {
		dims := out.Dimensions
		if out.DataType == ort.TensorElementDataTypeFloat && len(dims) == 2 && dims[1] == probabilityClasses {
			return out.Name, nil
		}
	}
	return "", fmt.Errorf("%w: no [N,%d] float probability output (export with zipmap disabled)", ErrModelShape, probabilityClasses)
}

// Name implements scoring.Classifier.
func (m *Model) Name() string { return m.name }

// PredictProbability implements scoring.Classifier.
func (m *Model) PredictProbability(ctx context.Context, scaled []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(scaled) != features.Size {
		return 0, fmt.Errorf("%w: got %d values", scoring.ErrShape, len(scaled))
	}

	data := make([]float32, len(scaled))
	for i, v := range scaled {
		data[i] = float32(v)
	}

	in, err := ort.NewTensor(ort.NewShape(1, features.Size), data)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, probabilityClasses))
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := m.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return 0, fmt.Errorf("onnx: %s inference failed: %w", m.name, err)
	}
	return float64(out.GetData()[positiveClass]), nil
}

// Close releases the session.
func (m *Model) Close() error {
	return m.session.Destroy()
}

// Set holds the four loaded ensemble members.
type Set struct {
	RF  *Model
	XGB *Model
	LGB *Model
	Cat *Model
}

// LoadSet initializes the runtime from libPath and loads the four models from
// dir. Models loaded before a failure are closed.
func LoadSet(dir, libPath string) (*Set, error) {
	if err := Init(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	s := &Set{}
	slots := []struct {
		file string
		name string
		dst  **Model
	}{
		{RFFile, "onnx-rf", &s.RF},
		{XGBFile, "onnx-xgb", &s.XGB},
		{LGBFile, "onnx-lgb", &s.LGB},
		{CatFile, "onnx-cat", &s.Cat},
	}
	for _, slot := range slots {
		m, err := Load(filepath.Join(dir, slot.file), slot.name)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		*slot.dst = m
	}
	return s, nil
}

// Models exposes the set as scoring.Models.
func (s *Set) Models() scoring.Models {
	return scoring.Models{RF: s.RF, XGB: s.XGB, LGB: s.LGB, Cat: s.Cat}
}

// Close releases every loaded session.
func (s *Set) Close() error {
	var errs []error
	for _, m := range []*Model{s.RF, s.XGB, s.LGB, s.Cat} {
		if m != nil {
			errs = append(errs, m.Close())
		}
	}
	return errors.Join(errs...)
}
