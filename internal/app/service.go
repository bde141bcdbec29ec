// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/dice/internal/domain/dice"
	"github.com/okian/dice/pkg/logger"
	"github.com/okian/dice/pkg/metrics"
	"github.com/prometheus/procfs"
)

const (
	defaultMetricsInterval    = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// ErrRollFailed wraps any fault raised by the random source.
var ErrRollFailed = errors.New("roll failed")

// MemoryUsage reports process memory in bytes, keyed like Node's process.memoryUsage().
type MemoryUsage struct {
	RSS          uint64 `json:"rss"`
	HeapTotal    uint64 `json:"heapTotal"`
	HeapUsed     uint64 `json:"heapUsed"`
	External     uint64 `json:"external"`
	ArrayBuffers uint64 `json:"arrayBuffers"`
}

// Service implements the API dependencies for the dice service.
type Service struct {
	mu sync.Mutex

	roller    *dice.Roller
	source    dice.Source
	startedAt time.Time
	now       func() time.Time
	rss       func() (uint64, error)

	metricsInterval time.Duration

	// State
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets the random source used for every roll.
func WithSource(src dice.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithClock overrides the time source used for timestamps and uptime.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStartTime sets the instant uptime is measured from.
func WithStartTime(t time.Time) Option {
	return func(s *Service) {
		if !t.IsZero() {
			s.startedAt = t
		}
	}
}

// WithMetricsInterval sets how often system gauges are refreshed after Start.
func WithMetricsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.metricsInterval = d
		}
	}
}

// WithRSSReader overrides how resident memory is sampled.
func WithRSSReader(read func() (uint64, error)) Option {
	return func(s *Service) {
		if read != nil {
			s.rss = read
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		now:             time.Now,
		rss:             procRSS,
		metricsInterval: defaultMetricsInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.roller = dice.NewRoller(s.source)
	if s.startedAt.IsZero() {
		s.startedAt = s.now()
	}
	return s
}

// Start begins the background system metrics updater.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.updateSystemMetricsLoop(ctx, s.stopCh, s.doneCh)

	s.started = true
	s.logger.Info(ctx, "dice service started", logger.String("metricsInterval", s.metricsInterval.String()))
	return nil
}

// Stop halts the background updater and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.started = false
	s.logger.Info(context.Background(), "dice service stopped")
}

// Now returns the current time from the service clock.
func (s *Service) Now() time.Time { return s.now() }

// Uptime returns how long the process has been running.
func (s *Service) Uptime() time.Duration { return s.now().Sub(s.startedAt) }

// Roll rolls one d6.
func (s *Service) Roll(ctx context.Context) (face int, err error) {
	defer s.recoverRoll(ctx, &err)
	face = s.roller.Roll()
	metrics.RecordDieRolled(face)
	metrics.RecordRollBatch(1)
	return face, nil
}

// RollN rolls count d6 and returns the faces in draw order with their sum.
func (s *Service) RollN(ctx context.Context, count int) (results []int, total int, err error) {
	defer s.recoverRoll(ctx, &err)
	results, total, err = s.roller.RollN(count)
	if err != nil {
		return nil, 0, err
	}
	for _, face := range results {
		metrics.RecordDieRolled(face)
	}
	metrics.RecordRollBatch(count)
	return results, total, nil
}

func (s *Service) recoverRoll(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrRollFailed, r)
		metrics.RecordRollFailure()
		if s.logger != nil {
			s.logger.Error(ctx, "random source panicked", logger.Any("panic", r))
		}
	}
}

// Memory samples process memory usage.
func (s *Service) Memory(_ context.Context) (MemoryUsage, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := MemoryUsage{
		HeapTotal:    m.HeapSys,
		HeapUsed:     m.HeapAlloc,
		External:     m.Sys - m.HeapSys,
		ArrayBuffers: m.StackInuse,
	}
	rss, err := s.rss()
	if err != nil {
		// No procfs on this platform; Sys is the closest upper bound.
		rss = m.Sys
	}
	usage.RSS = rss
	return usage, nil
}

// procRSS reads resident set size from /proc/self/stat.
func procRSS() (uint64, error) {
	proc, err := procfs.Self()
	if err != nil {
		return 0, fmt.Errorf("open /proc/self: %w", err)
	}
	stat, err := proc.Stat()
	if err != nil {
		return 0, fmt.Errorf("read /proc/self/stat: %w", err)
	}
	return uint64(stat.ResidentMemory()), nil
}

func (s *Service) updateSystemMetricsLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.metricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
