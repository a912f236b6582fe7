package config

import "errors"

var (
	// ErrInvalidConfig marks a loaded configuration that fails Validate,
	// such as an unknown model backend or an onnx backend without a scaler.
	ErrInvalidConfig = errors.New("invalid firewatch config")
	// ErrLoadConfig marks a config file, environment or decode failure.
	ErrLoadConfig = errors.New("load firewatch config")
)
