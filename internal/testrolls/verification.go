package testrolls

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/okian/dice/internal/domain/dice"
	"github.com/okian/dice/pkg/logger"
)

// checkSingle returns a description of what is wrong with roll, or "".
func checkSingle(path string, roll SingleRoll) string {
	if roll.Status != "success" || roll.Die != dice.Die {
		return fmt.Sprintf("%s: unexpected envelope status=%q die=%q", path, roll.Status, roll.Die)
	}
	if roll.Result < 1 || roll.Result > dice.Faces {
		return fmt.Sprintf("%s: face %d out of range", path, roll.Result)
	}
	return ""
}

// checkMultiple returns a description of what is wrong with roll, or "".
func checkMultiple(path string, count int, roll MultipleRoll) string {
	if roll.Status != "success" || roll.Dice != dice.Die {
		return fmt.Sprintf("%s: unexpected envelope status=%q dice=%q", path, roll.Status, roll.Dice)
	}
	if roll.Count != count || len(roll.Results) != count {
		return fmt.Sprintf("%s: asked for %d dice, got count=%d with %d results", path, count, roll.Count, len(roll.Results))
	}
	sum := 0
	for _, f := range roll.Results {
		if f < 1 || f > dice.Faces {
			return fmt.Sprintf("%s: face %d out of range", path, f)
		}
		sum += f
	}
	if sum != roll.Total {
		return fmt.Sprintf("%s: total %d does not match sum %d", path, roll.Total, sum)
	}
	return ""
}

// verifyInvalidCounts checks that out-of-range batch sizes are rejected.
func verifyInvalidCounts(ctx context.Context, config *Config) []string {
	client := newHTTPClient(config.Timeout)
	var violations []string
	for _, raw := range []string{"0", "101", "abc"} {
		path := "/api/roll/multiple/" + raw
		resp, err := client.Get(ctx, config.BaseURL+path, "")
		if err != nil {
			violations = append(violations, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		_, _ = readResponseBody(resp)
		if resp.StatusCode != http.StatusBadRequest {
			violations = append(violations, fmt.Sprintf("%s: status %d, want 400", path, resp.StatusCode))
		}
	}
	return violations
}

// verifyCrossOrigin checks that the allowed origin is granted on a regular
// route and that /api/roll-dice never grants any origin.
func verifyCrossOrigin(ctx context.Context, config *Config) []string {
	client := newHTTPClient(config.Timeout)
	var violations []string

	check := func(path string, wantGrant bool) {
		resp, err := client.Get(ctx, config.BaseURL+path, config.Origin)
		if err != nil {
			violations = append(violations, fmt.Sprintf("%s: %v", path, err))
			return
		}
		_, _ = readResponseBody(resp)
		got := resp.Header.Get("Access-Control-Allow-Origin")
		switch {
		case wantGrant && got != config.Origin:
			violations = append(violations, fmt.Sprintf("%s: Access-Control-Allow-Origin=%q, want %q", path, got, config.Origin))
		case !wantGrant && got != "":
			violations = append(violations, fmt.Sprintf("%s: Access-Control-Allow-Origin=%q, want none", path, got))
		}
	}

	if config.Origin != "" {
		check("/api/roll/single", true)
	}
	check("/api/roll-dice", false)
	return violations
}

// ChiSquare returns the chi-square statistic of observed face counts against
// a uniform distribution.
func ChiSquare(faces [dice.Faces]int) float64 {
	total := 0
	for _, n := range faces {
		total += n
	}
	if total == 0 {
		return 0
	}
	expected := float64(total) / dice.Faces
	var chi float64
	for _, n := range faces {
		d := float64(n) - expected
		chi += d * d / expected
	}
	return chi
}

// verifyDistribution checks the observed faces for uniformity. Samples too
// small for the test pass unchecked.
func verifyDistribution(ctx context.Context, stats *Stats) []string {
	stats.ChiSquare = ChiSquare(stats.Faces)
	if stats.DiceRolled < dice.Faces*minExpectedPerFace {
		logger.Get().Info(ctx, "too few dice for a distribution check", logger.Int("diceRolled", stats.DiceRolled))
		return nil
	}

	logger.Get().Info(ctx, "face distribution",
		logger.Any("faces", stats.Faces),
		logger.Float64("chiSquare", math.Round(stats.ChiSquare*1000)/1000))

	if stats.ChiSquare > chiSquareCritical {
		return []string{fmt.Sprintf("faces %v are not uniform: chi-square %.3f > %.3f", stats.Faces, stats.ChiSquare, chiSquareCritical)}
	}
	return nil
}
