package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/firewatch/internal/domain/reading"
	"github.com/okian/firewatch/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request and decodes a 200 JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// Post sends body as JSON and decodes a 200 JSON response into out.
func (c *HTTPClient) Post(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// submitReadings posts readings concurrently. Failed submissions leave a
// nil slot in the returned slice.
func submitReadings(ctx context.Context, config *Config, readings []reading.Reading, stats *Stats) []*Result {
	log := logger.Get()
	log.Info(ctx, "submitting readings",
		logger.Int("count", len(readings)),
		logger.Int("workers", config.Workers),
	)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/assess"
	results := make([]*Result, len(readings))

	var (
		submitted  atomic.Int64
		assessed   atomic.Int64
		failed     atomic.Int64
		lastReport atomic.Int64
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for range config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range indexChan {
				if ctx.Err() != nil {
					return
				}

				var a Assessment
				err := client.Post(ctx, url, readings[i], &a)
				submitted.Add(1)
				if err != nil {
					failed.Add(1)
					log.Debug(ctx, "assessment failed", logger.Int("index", i), logger.Error(err))
				} else {
					assessed.Add(1)
					results[i] = &Result{Reading: readings[i], Assessment: a}
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if time.Duration(now-last) >= ProgressInterval && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Any("submitted", submitted.Load()),
						logger.Int("total", len(readings)),
						logger.Any("failed", failed.Load()),
					)
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range readings {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.ReadingsSubmitted = int(submitted.Load())
	stats.ReadingsAssessed = int(assessed.Load())
	stats.ReadingsFailed = int(failed.Load())

	log.Info(ctx, "submission completed",
		logger.Int("assessed", stats.ReadingsAssessed),
		logger.Int("failed", stats.ReadingsFailed),
	)
	return results
}
