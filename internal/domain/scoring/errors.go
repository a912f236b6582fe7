package scoring

import "errors"

// Sentinel errors for the inference boundary.
var (
	ErrMissingModel = errors.New("missing model")
	ErrShape        = errors.New("unexpected vector length")
	ErrFeatureOrder = errors.New("feature order mismatch")
	ErrScale        = errors.New("scaling failed")
	ErrInference    = errors.New("inference failed")
	ErrProbability  = errors.New("probability out of range")
)
