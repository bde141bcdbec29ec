package testrolls

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/dice/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// Run executes the complete roll test. It returns an error wrapping
// ErrVerification when the service answered but broke a contract.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if config.Workers < 1 {
		config.Workers = 1
	}
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting dice roll test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("requests", config.Requests),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("origin", config.Origin),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Submit rolls concurrently
	if err := submitRolls(ctx, config, stats); err != nil {
		return stats, fmt.Errorf("roll submission failed: %w", err)
	}

	// Step 3: Contract checks
	stats.Violations = append(stats.Violations, verifyInvalidCounts(ctx, config)...)
	stats.Violations = append(stats.Violations, verifyCrossOrigin(ctx, config)...)
	stats.Violations = append(stats.Violations, verifyDistribution(ctx, stats)...)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	// Step 4: Save the report
	if config.OutputFile != "" {
		if err := saveReport(ctx, config.OutputFile, stats); err != nil {
			logger.Get().Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	displayFinalStats(ctx, stats)

	if len(stats.Violations) > 0 {
		for i, v := range stats.Violations {
			if i == maxViolationsLogged {
				logger.Get().Error(ctx, "more violations omitted", logger.Int("total", len(stats.Violations)))
				break
			}
			logger.Get().Error(ctx, "violation", logger.String("detail", v))
		}
		return stats, fmt.Errorf("%w: %d violations", ErrVerification, len(stats.Violations))
	}
	if stats.RequestsFailed > 0 {
		return stats, fmt.Errorf("%d of %d roll requests failed", stats.RequestsFailed, stats.RequestsSent)
	}

	logger.Get().Info(ctx, "test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	var health struct {
		Status string `json:"status"`
	}
	if err := client.getJSON(ctx, config.BaseURL+"/api/health", &health); err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	if health.Status != "healthy" {
		return fmt.Errorf("service reported status %q", health.Status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveReport writes stats as JSON to filename.
func saveReport(ctx context.Context, filename string, stats *Stats) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Get().Info(ctx, "report saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64

	if stats.RequestsSent > 0 {
		successRate = float64(stats.RequestsSuccessful) / float64(stats.RequestsSent) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("requestsSent", stats.RequestsSent),
		logger.Int("requestsSuccessful", stats.RequestsSuccessful),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("diceRolled", stats.DiceRolled),
		logger.Int("violations", len(stats.Violations)),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
