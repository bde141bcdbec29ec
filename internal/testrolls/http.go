package testrolls

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dice/internal/domain/dice"
	"github.com/okian/dice/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request, sending Origin when origin is set.
func (c *HTTPClient) Get(ctx context.Context, url, origin string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return c.client.Do(req)
}

// getJSON performs a GET request and decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url, "")
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// rollJob is one request of the run. count 0 asks for a single roll.
type rollJob struct {
	index int
	count int
}

// jobFor alternates single rolls with batches cycling through every valid size.
func jobFor(i int) rollJob {
	if i%2 == 0 {
		return rollJob{index: i}
	}
	return rollJob{index: i, count: dice.MinCount + (i/2)%dice.MaxCount}
}

// rollResult is what one request produced.
type rollResult struct {
	faces     []int
	violation string
	err       error
}

// tally accumulates results from all workers.
type tally struct {
	mu         sync.Mutex
	faces      [dice.Faces]int
	rolled     int
	violations []string
}

func (t *tally) add(res rollResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if res.violation != "" {
		t.violations = append(t.violations, res.violation)
	}
	for _, f := range res.faces {
		if f >= 1 && f <= dice.Faces {
			t.faces[f-1]++
		}
		t.rolled++
	}
}

// submitRolls sends config.Requests roll requests concurrently using a worker pool.
func submitRolls(ctx context.Context, config *Config, stats *Stats) error {
	logger.Get().Info(ctx, "submitting roll requests",
		logger.Int("requests", config.Requests),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)

	var (
		sent       int64
		successful int64
		failed     int64
	)
	results := &tally{}

	jobs := make(chan rollJob, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					return
				}
				res := submitSingleRoll(ctx, client, config.BaseURL, job)
				atomic.AddInt64(&sent, 1)
				if res.err != nil || res.violation != "" {
					atomic.AddInt64(&failed, 1)
				} else {
					atomic.AddInt64(&successful, 1)
				}
				if res.err != nil && config.Verbose {
					logger.Get().Warn(ctx, "roll request failed", logger.Int("index", job.index), logger.Error(res.err))
				}
				results.add(res)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < config.Requests; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- jobFor(i):
			}
		}
	}()

	wg.Wait()

	stats.RequestsSent = int(atomic.LoadInt64(&sent))
	stats.RequestsSuccessful = int(atomic.LoadInt64(&successful))
	stats.RequestsFailed = int(atomic.LoadInt64(&failed))
	stats.DiceRolled = results.rolled
	stats.Faces = results.faces
	stats.Violations = append(stats.Violations, results.violations...)

	logger.Get().Info(ctx, "roll submission completed",
		logger.Int("successful", stats.RequestsSuccessful),
		logger.Int("failed", stats.RequestsFailed),
		logger.Int("diceRolled", stats.DiceRolled))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}
	return nil
}

// submitSingleRoll performs one job and checks the answer.
func submitSingleRoll(ctx context.Context, client *HTTPClient, baseURL string, job rollJob) rollResult {
	if job.count == 0 {
		var roll SingleRoll
		if err := client.getJSON(ctx, baseURL+"/api/roll/single", &roll); err != nil {
			return rollResult{err: err}
		}
		return rollResult{faces: []int{roll.Result}, violation: checkSingle("/api/roll/single", roll)}
	}

	path := "/api/roll/multiple/" + strconv.Itoa(job.count)
	var roll MultipleRoll
	if err := client.getJSON(ctx, baseURL+path, &roll); err != nil {
		return rollResult{err: err}
	}
	return rollResult{faces: roll.Results, violation: checkMultiple(path, job.count, roll)}
}
