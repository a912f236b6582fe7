package probe

import (
	"os"

	"github.com/okian/firewatch/pkg/logger"
)

// SetupLogging initializes the logger for the probe.
func SetupLogging(format string, verbose bool) error {
	if err := logger.Init(logger.WithFormat(format)); err != nil {
		return err
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`Firewatch Probe
===============

Submits random readings to a running firewatch service and checks every
response against the locally computed categories and hotspot flags.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -readings int
        Number of readings to generate and submit (default 1000)
  -top int
        Number of hotspots to fetch (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Generator seed, 0 for random (default 0)
  -heuristic
        Also check model outputs against the heuristic classifiers (default true)
  -output string
        Output file for readings and results (default: none)
  -log-format string
        Log format, text or json (default "text")
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Probe with default settings
  go run ./cmd/probe

  # Probe an ONNX-backed service, skipping the heuristic check
  go run ./cmd/probe -heuristic=false -readings 5000 -workers 16

  # Reproducible run saved to disk
  go run ./cmd/probe -seed 42 -output results.json
`)
}
