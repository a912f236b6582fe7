// Package probe drives a running firewatch service with generated readings
// and checks the responses against locally computed results.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/firewatch/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete probe.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting firewatch probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("readings", config.NumReadings),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Int("topN", config.TopN),
		logger.Bool("heuristic", config.Heuristic),
	)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate readings
	readings, err := generateReadings(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("reading generation failed: %w", err)
	}

	// Step 3: Submit readings concurrently
	results := submitReadings(ctx, config, readings, stats)

	// Step 4: Verify every response
	verifyErr := verifyAssessments(ctx, config, results, stats)

	// Step 5: Fetch and verify the hotspot ranking
	entries, err := getHotspots(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("hotspot retrieval failed: %w", err)
	}
	if err := verifyHotspotRanking(ctx, results, entries); err != nil {
		return stats, fmt.Errorf("hotspot verification failed: %w", err)
	}

	// Step 6: Save results to file
	if config.OutputFile != "" {
		if err := saveResults(ctx, config.OutputFile, results); err != nil {
			log.Warn(ctx, "failed to save results", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, verifyErr
	}
	if stats.ReadingsFailed > 0 {
		return stats, fmt.Errorf("%d readings failed", stats.ReadingsFailed)
	}

	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running. /healthz answers with
// Prometheus text, so the body is not decoded.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	if err := client.Get(ctx, config.BaseURL+"/healthz", nil); err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// getHotspots fetches the top config.TopN cells.
func getHotspots(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/hotspots?limit=" + strconv.Itoa(config.TopN)

	var entries []Entry
	if err := client.Get(ctx, url, &entries); err != nil {
		return nil, err
	}
	stats.HotspotEntries = len(entries)
	return entries, nil
}

// saveResults writes the successful results as a JSON array.
func saveResults(ctx context.Context, filename string, results []*Result) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	out := make([]*Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	logger.Get().Info(ctx, "results saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, readingsPerSecond float64

	if stats.ReadingsSubmitted > 0 {
		successRate = float64(stats.ReadingsAssessed) / float64(stats.ReadingsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		readingsPerSecond = float64(stats.ReadingsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("readingsGenerated", stats.ReadingsGenerated),
		logger.Int("readingsSubmitted", stats.ReadingsSubmitted),
		logger.Int("readingsAssessed", stats.ReadingsAssessed),
		logger.Int("readingsFailed", stats.ReadingsFailed),
		logger.Int("hotspots", stats.Hotspots),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("hotspotEntries", stats.HotspotEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("readingsPerSecond", readingsPerSecond),
	)
}
