// Package metrics provides Prometheus metrics for the mzsweep feature finder.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds all Prometheus metrics of a detection run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline throughput
	scansProcessed     prometheus.Counter
	candidatesAccepted prometheus.Counter
	candidatesRejected prometheus.Counter
	featuresPromoted   prometheus.Counter

	// Sweep-line state
	boxesOpened prometheus.Counter
	boxesClosed prometheus.Counter
	openBoxes   prometheus.Gauge

	// Stage latencies (milliseconds)
	scoringLatency  prometheus.Histogram
	trackingLatency prometheus.Histogram

	// Advisory progress ticks, labeled by stage: scored, filtered, tracked
	progressTicks *prometheus.CounterVec

	// Queue and worker health
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueErrors      prometheus.Counter
	workerActive     prometheus.Gauge

	// Errors by component and kind
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry backing the singleton

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mzsweep",
		subsystem:        "featurefinder",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics registers all metrics on the configured registry.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scansProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scans_processed_total",
		Help:      "Total number of scans advanced through the sweep line",
	})

	m.candidatesAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_accepted_total",
		Help:      "Candidates that passed the per-scan adaptive score threshold",
	})

	m.candidatesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_rejected_total",
		Help:      "Candidates rejected by the per-scan adaptive score threshold",
	})

	m.featuresPromoted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "features_promoted_total",
		Help:      "Closed boxes promoted to features at synthesis time",
	})

	m.boxesOpened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "boxes_opened_total",
		Help:      "Traces opened by unmatched candidates",
	})

	m.boxesClosed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "boxes_closed_total",
		Help:      "Traces closed by gap-tolerance expiry or terminal flush",
	})

	m.openBoxes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_boxes",
		Help:      "Currently open traces across all charge states",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of per-scan pattern scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.trackingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracking_latency_milliseconds",
		Help:      "Histogram of per-scan box tracking latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.progressTicks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "progress_ticks_total",
		Help:      "Advisory per-scan progress ticks by pipeline stage",
	}, []string{"stage"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of scans waiting to be scored",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum capacity of the scan queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Scan queue utilization ratio (0.0 to 1.0)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total scans enqueued for scoring",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total scans handed to scoring workers",
	})

	m.queueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_errors_total",
		Help:      "Failed enqueue attempts (closed or full queue)",
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "workers_active",
		Help:      "Number of running scoring workers",
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and kind",
	}, []string{"component", "kind"})
}

// RecordScanProcessed increments the processed-scans counter.
func RecordScanProcessed() {
	globalManager.scansProcessed.Inc()
}

// RecordCandidates records the per-scan filter outcome.
func RecordCandidates(accepted, rejected int) {
	globalManager.candidatesAccepted.Add(float64(accepted))
	globalManager.candidatesRejected.Add(float64(rejected))
}

// RecordFeatures adds to the promoted-features counter.
func RecordFeatures(n int) {
	globalManager.featuresPromoted.Add(float64(n))
}

// RecordBoxOpened increments the opened-traces counter.
func RecordBoxOpened() {
	globalManager.boxesOpened.Inc()
}

// RecordBoxClosed increments the closed-traces counter.
func RecordBoxClosed() {
	globalManager.boxesClosed.Inc()
}

// UpdateOpenBoxes sets the open-traces gauge.
func UpdateOpenBoxes(n int) {
	globalManager.openBoxes.Set(float64(n))
}

// RecordScoringLatency records per-scan scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordTrackingLatency records per-scan tracking latency in milliseconds.
func RecordTrackingLatency(latencyMs float64) {
	globalManager.trackingLatency.Observe(latencyMs)
}

// RecordProgress emits one advisory progress tick for a pipeline stage.
func RecordProgress(stage string) {
	globalManager.progressTicks.WithLabelValues(stage).Inc()
}

// UpdateQueueSize sets the current scan queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the scan queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the scan queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueError increments the failed-enqueue counter.
func RecordQueueError() {
	globalManager.queueErrors.Inc()
}

// UpdateWorkerActiveCount sets the running-workers gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordErrorByComponent records an error with component and kind labels.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom Prometheus registry backing the global
// manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler returns an HTTP handler serving the global registry; it backs the
// optional metrics listener of a run.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
