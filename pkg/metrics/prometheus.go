// Package metrics provides Prometheus metrics for the survey analysis runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the analysis engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core Business Metrics - scoring throughput and data quality
	responsesScored   prometheus.Counter
	anomalies         *prometheus.CounterVec
	scoringLatency    prometheus.Histogram
	baselinesComputed prometheus.Counter

	// Operational Health Metrics
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge
	participants  prometheus.Gauge

	// Persistence Metrics
	storeExports       prometheus.Counter
	storeExportLatency prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pulse",
		subsystem:        "survey",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.responsesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "responses_scored_total",
		Help:      "Total number of participant-week response sets scored",
	})

	m.anomalies = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "anomalies_total",
			Help:      "Total number of reported anomalies by kind",
		},
		[]string{"kind"},
	)

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of per-record scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.baselinesComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "baselines_computed_total",
		Help:      "Total number of cohort baselines computed",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the response queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the response queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of scoring workers",
	})

	m.participants = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_total",
		Help:      "Number of participants tracked in the analysis store",
	})

	m.storeExports = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_exports_total",
		Help:      "Total number of analysis store exports",
	})

	m.storeExportLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_export_latency_milliseconds",
		Help:      "Histogram of analysis store export latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers operating on the global manager.

// RecordResponseScored increments the scored response counter.
func RecordResponseScored() {
	if globalManager.enabled {
		globalManager.responsesScored.Inc()
	}
}

// RecordAnomaly increments the anomaly counter for a kind.
func RecordAnomaly(kind string) {
	if globalManager.enabled {
		globalManager.anomalies.WithLabelValues(kind).Inc()
	}
}

// RecordScoringLatency observes one scoring duration in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.scoringLatency.Observe(latencyMs)
	}
}

// RecordBaselineComputed increments the baseline counter.
func RecordBaselineComputed() {
	if globalManager.enabled {
		globalManager.baselinesComputed.Inc()
	}
}

// UpdateQueueSize sets the current queue size gauge.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateWorkerCount sets the worker count gauge.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdateParticipants sets the tracked participant gauge.
func UpdateParticipants(count int) {
	if globalManager.enabled {
		globalManager.participants.Set(float64(count))
	}
}

// RecordStoreExport increments the export counter.
func RecordStoreExport() {
	if globalManager.enabled {
		globalManager.storeExports.Inc()
	}
}

// RecordStoreExportLatency observes one export duration in milliseconds.
func RecordStoreExportLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeExportLatency.Observe(latencyMs)
	}
}

// GetRegistry returns the custom registry backing the global manager, for
// serving via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
