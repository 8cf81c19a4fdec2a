package metrics

import (
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels.
const (
	StageBuild  = "build"
	StageSplit  = "split"
	StageSearch = "search"
)

// Split side labels.
const (
	SideTrain = "train"
	SideTest  = "test"
)

// Manager owns the pipeline metrics.
type Manager struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Feature builder
	rowsIn        prometheus.Counter
	rowsOut       prometheus.Counter
	rowsTrimmed   prometheus.Counter
	rowsCollapsed prometheus.Counter
	emptyInputs   *prometheus.CounterVec

	// Splitter
	partitions *prometheus.CounterVec
	splitRows  *prometheus.CounterVec

	// Hyperparameter search
	candidates     prometheus.Counter
	bestScore      prometheus.Gauge
	candidateScore prometheus.Histogram

	// Every stage
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "ascent",
		subsystem:       "pipeline",
		durationBuckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		constLabels:     map[string]string{},
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsIn = m.counter("feature_rows_in_total", "Rows received by the feature builder")
	m.rowsOut = m.counter("feature_rows_out_total", "Rows emitted by the feature builder")
	m.rowsTrimmed = m.counter("feature_rows_trimmed_total", "Rows dropped by the warm-up trim")
	m.rowsCollapsed = m.counter("feature_rows_collapsed_total", "Rows merged by the granularity collapse")
	m.emptyInputs = m.counterVec("empty_inputs_total", "Stages invoked with an empty table", "stage")

	m.partitions = m.counterVec("split_partitions_total", "Partitions routed by the splitter", "side")
	m.splitRows = m.counterVec("split_rows_total", "Rows routed by the splitter", "side")

	m.candidates = m.counter("search_candidates_total", "Hyperparameter candidates evaluated")
	m.bestScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "search_best_score",
		Help:        "Cross-validated score of the last selected candidate",
		ConstLabels: m.constLabels,
	})
	m.candidateScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "search_candidate_score",
		Help:        "Distribution of cross-validated candidate scores",
		Buckets:     prometheus.LinearBuckets(0, 0.1, 11),
		ConstLabels: m.constLabels,
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_seconds",
		Help:        "Wall time of each pipeline stage",
		Buckets:     m.durationBuckets,
		ConstLabels: m.constLabels,
	}, []string{"stage"})
	m.stageErrors = m.counterVec("stage_errors_total", "Failed stage invocations by error kind", "stage", "kind")
}

// BuildStats summarizes one feature build.
type BuildStats struct {
	RowsIn        int
	RowsOut       int
	RowsTrimmed   int
	RowsCollapsed int
}

// RecordBuild records the row accounting of a build.
func (m *Manager) RecordBuild(s BuildStats) {
	m.rowsIn.Add(float64(s.RowsIn))
	m.rowsOut.Add(float64(s.RowsOut))
	m.rowsTrimmed.Add(float64(s.RowsTrimmed))
	m.rowsCollapsed.Add(float64(s.RowsCollapsed))
}

// RecordSplit records partitions and rows per side.
func (m *Manager) RecordSplit(trainPartitions, testPartitions, trainRows, testRows int) {
	m.partitions.WithLabelValues(SideTrain).Add(float64(trainPartitions))
	m.partitions.WithLabelValues(SideTest).Add(float64(testPartitions))
	m.splitRows.WithLabelValues(SideTrain).Add(float64(trainRows))
	m.splitRows.WithLabelValues(SideTest).Add(float64(testRows))
}

// RecordCandidate records one evaluated search candidate.
func (m *Manager) RecordCandidate(score float64) {
	m.candidates.Inc()
	m.candidateScore.Observe(score)
}

// SetBestScore publishes the score of the selected candidate.
func (m *Manager) SetBestScore(score float64) { m.bestScore.Set(score) }

// RecordEmptyInput counts a stage that received no rows.
func (m *Manager) RecordEmptyInput(stage string) { m.emptyInputs.WithLabelValues(stage).Inc() }

// ObserveStage records the duration of a stage.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordStageError counts a failed stage by error kind.
func (m *Manager) RecordStageError(stage, kind string) {
	m.stageErrors.WithLabelValues(stage, kind).Inc()
}

// Package-level helpers over the global manager.

// RecordBuild records build accounting on the global manager.
func RecordBuild(s BuildStats) { globalManager.RecordBuild(s) }

// RecordSplit records split accounting on the global manager.
func RecordSplit(trainPartitions, testPartitions, trainRows, testRows int) {
	globalManager.RecordSplit(trainPartitions, testPartitions, trainRows, testRows)
}

// RecordCandidate records a search candidate on the global manager.
func RecordCandidate(score float64) { globalManager.RecordCandidate(score) }

// SetBestScore publishes the best search score on the global manager.
func SetBestScore(score float64) { globalManager.SetBestScore(score) }

// RecordEmptyInput counts an empty-input stage on the global manager.
func RecordEmptyInput(stage string) { globalManager.RecordEmptyInput(stage) }

// ObserveStage records a stage duration on the global manager.
func ObserveStage(stage string, d time.Duration) { globalManager.ObserveStage(stage, d) }

// RecordStageError counts a stage error on the global manager.
func RecordStageError(stage, kind string) { globalManager.RecordStageError(stage, kind) }

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it before any stage records; earlier samples are dropped.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(slices.Clone(opts), WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the custom registry in the text exposition format, for
// node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteTextfile, path, err)
	}
	return nil
}
