// Package metrics provides Prometheus metrics for the dice service.
package metrics

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// rollBatchBuckets covers the accepted batch sizes of /api/roll/multiple.
var rollBatchBuckets = []float64{1, 2, 5, 10, 25, 50, 100} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the dice service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Dice Metrics
	diceRolled    *prometheus.CounterVec
	rollBatchSize prometheus.Histogram
	rollFailures  prometheus.Counter

	// Cross-origin Metrics
	corsDecisions     *prometheus.CounterVec
	preflightRequests prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	panicsRecovered     prometheus.Counter

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance and the registry it publishes to.
var (
	globalManager  atomic.Pointer[Manager]             //nolint:gochecknoglobals // singleton metrics manager
	customRegistry atomic.Pointer[prometheus.Registry] //nolint:gochecknoglobals // registry served on /metrics
)

func init() { //nolint:gochecknoinits // default manager so recorders work before Init
	Init()
}

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before serving traffic.
func Init(opts ...Option) *Manager {
	reg := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(reg))...)
	customRegistry.Store(reg)
	globalManager.Store(m)
	return m
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dice",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether recorders write to the collectors.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is the period of the system gauge updater.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.diceRolled = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "dice_rolled_total",
			Help:        "Total number of dice rolled, by face value",
			ConstLabels: labels,
		},
		[]string{"face"},
	)

	m.rollBatchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "roll_batch_size",
		Help:        "Number of dice rolled per request",
		Buckets:     rollBatchBuckets,
		ConstLabels: labels,
	})

	m.rollFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "roll_failures_total",
		Help:        "Total number of roll requests that failed internally",
		ConstLabels: labels,
	})

	m.corsDecisions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "cors_decisions_total",
			Help:        "Cross-origin filter decisions (allowed, rejected, absent, opted_out)",
			ConstLabels: labels,
		},
		[]string{"decision"},
	)

	m.preflightRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "preflight_requests_total",
		Help:        "Total number of OPTIONS preflight requests answered",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.panicsRecovered = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "panics_recovered_total",
		Help:        "Total number of handler panics converted to 500 responses",
		ConstLabels: labels,
	})

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Total number of errors by type and severity",
			ConstLabels: labels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint, method and type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "error_latency_milliseconds",
			Help:        "Latency of operations that resulted in an error",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Heap bytes allocated by the process",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutine_count",
		Help:        "Current number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})
}

// RecordDieRolled counts one die landing on face.
func (m *Manager) RecordDieRolled(face int) {
	if !m.enabled {
		return
	}
	m.diceRolled.WithLabelValues(strconv.Itoa(face)).Inc()
}

// RecordRollBatch observes the number of dice rolled by one request.
func (m *Manager) RecordRollBatch(size int) {
	if !m.enabled {
		return
	}
	m.rollBatchSize.Observe(float64(size))
}

// RecordRollFailure counts a roll request that failed internally.
func (m *Manager) RecordRollFailure() {
	if !m.enabled {
		return
	}
	m.rollFailures.Inc()
}

// RecordCORSDecision counts one decision of the cross-origin filter.
func (m *Manager) RecordCORSDecision(decision string) {
	if !m.enabled {
		return
	}
	m.corsDecisions.WithLabelValues(decision).Inc()
}

// RecordPreflight counts an answered OPTIONS request.
func (m *Manager) RecordPreflight() {
	if !m.enabled {
		return
	}
	m.preflightRequests.Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordPanicRecovered counts a panic converted into a 500 response.
func (m *Manager) RecordPanicRecovered() {
	if !m.enabled {
		return
	}
	m.panicsRecovered.Inc()
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func (m *Manager) RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if !m.enabled {
		return
	}
	m.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// Package-level recorders delegate to the global manager.

// Global returns the manager used by the package-level recorders.
func Global() *Manager { return globalManager.Load() }

// RecordDieRolled counts one die landing on face.
func RecordDieRolled(face int) { Global().RecordDieRolled(face) }

// RecordRollBatch observes the number of dice rolled by one request.
func RecordRollBatch(size int) { Global().RecordRollBatch(size) }

// RecordRollFailure counts a roll request that failed internally.
func RecordRollFailure() { Global().RecordRollFailure() }

// RecordCORSDecision counts one decision of the cross-origin filter.
func RecordCORSDecision(decision string) { Global().RecordCORSDecision(decision) }

// RecordPreflight counts an answered OPTIONS request.
func RecordPreflight() { Global().RecordPreflight() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	Global().RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	Global().RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)
}

// RecordPanicRecovered counts a panic converted into a 500 response.
func RecordPanicRecovered() { Global().RecordPanicRecovered() }

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) { Global().RecordErrorByType(errorType, severity) }

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	Global().RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	Global().RecordErrorLatency(component, errorType, latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { Global().UpdateSystemMemoryUsage(bytes) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { Global().UpdateSystemGoroutineCount(count) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { Global().RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry.Load()
}
