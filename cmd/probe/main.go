package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/firewatch/internal/probe"
)

// Default configuration constants.
const (
	defaultNumReadings  = 1000
	defaultTopN         = 50
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultProbeTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numReadings = flag.Int("readings", defaultNumReadings, "Number of readings to generate and submit")
		topN        = flag.Int("top", defaultTopN, "Number of hotspots to fetch")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed        = flag.Uint64("seed", 0, "Generator seed, 0 for random")
		heuristic   = flag.Bool("heuristic", true, "Check model outputs against the heuristic classifiers")
		outputFile  = flag.String("output", "", "Output file for readings and results")
		logFormat   = flag.String("log-format", "text", "Log format, text or json")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := probe.SetupLogging(*logFormat, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	config := &probe.Config{
		BaseURL:     *baseURL,
		NumReadings: *numReadings,
		TopN:        *topN,
		Workers:     max(1, *workers),
		Timeout:     *timeout,
		Seed:        *seed,
		Heuristic:   *heuristic,
		OutputFile:  *outputFile,
	}

	_, err := probe.Run(ctx, config)
	cancel()
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
