// Package dice rolls six-sided dice and validates batch sizes.
package dice

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Die is the only die the service rolls.
const Die = "d6"

// Bounds of a single roll and of a batch.
const (
	Faces    = 6
	MinCount = 1
	MaxCount = 100
)

// ErrInvalidCount is returned for batch sizes that are not integers in [MinCount, MaxCount].
var ErrInvalidCount = errors.New("invalid count parameter")

// Source yields integers in [0, n). It must be safe for concurrent use.
type Source interface {
	IntN(n int) int
}

// globalSource draws from math/rand/v2's auto-seeded generator.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Roller rolls d6 dice from a Source.
type Roller struct {
	src Source
}

// NewRoller returns a Roller backed by src, or by the package generator when src is nil.
func NewRoller(src Source) *Roller {
	if src == nil {
		src = globalSource{}
	}
	return &Roller{src: src}
}

// Roll returns one face in [1, Faces].
func (r *Roller) Roll() int {
	return r.src.IntN(Faces) + 1
}

// RollN returns count independent faces in draw order and their sum.
func (r *Roller) RollN(count int) ([]int, int, error) {
	if count < MinCount || count > MaxCount {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	results := make([]int, count)
	total := 0
	for i := range results {
		results[i] = r.Roll()
		total += results[i]
	}
	return results, total, nil
}

// ParseCount parses a batch size taken from a URL path segment.
func ParseCount(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidCount, raw)
	}
	if n < MinCount || n > MaxCount {
		return 0, fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidCount, n, MinCount, MaxCount)
	}
	return n, nil
}
