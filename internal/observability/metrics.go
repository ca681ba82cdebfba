package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/pipeline"
)

// Metrics contains the Prometheus metrics of the generator.
type Metrics struct {
	// RunsStarted counts runs accepted by the coordinator.
	RunsStarted prometheus.Counter
	// RunsCompleted counts runs that finished, labeled by outcome (ok, degraded).
	RunsCompleted *prometheus.CounterVec
	// RunsFailed counts runs aborted by an error.
	RunsFailed  prometheus.Counter
	RunDuration prometheus.Histogram

	// ItemsGenerated counts produced documents, labeled by phase and format.
	ItemsGenerated *prometheus.CounterVec
	// ItemsFailed counts items whose producer failed, labeled by phase.
	ItemsFailed *prometheus.CounterVec
	// ItemsLost counts items never reported by a lost worker, labeled by phase.
	ItemsLost *prometheus.CounterVec

	WorkersLost *prometheus.CounterVec
	// ActiveWorkers is the number of workers of the current phase still running.
	ActiveWorkers *prometheus.GaugeVec
	// PhaseProgress is the fraction of the phase's items accounted for.
	PhaseProgress *prometheus.GaugeVec
	PhaseDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics on reg; a nil reg means the default registry.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total number of generation runs started",
		}),
		RunsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Total number of generation runs completed",
		}, []string{"outcome"}),
		RunsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total number of generation runs aborted by an error",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of generation runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ItemsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_generated_total",
			Help:      "Total number of documents generated",
		}, []string{"phase", "format"}),
		ItemsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_failed_total",
			Help:      "Total number of items whose producer failed",
		}, []string{"phase"}),
		ItemsLost: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_lost_total",
			Help:      "Total number of items never reported because their worker was lost",
		}, []string{"phase"}),
		WorkersLost: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_lost_total",
			Help:      "Total number of workers that exited without reporting done",
		}, []string{"phase"}),
		ActiveWorkers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Workers of the current phase that have not reported done",
		}, []string{"phase"}),
		PhaseProgress: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_progress_ratio",
			Help:      "Fraction of the phase's items accounted for",
		}, []string{"phase"}),
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of generation phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"phase"}),
	}
}

// RecordRunStarted increments the started counter.
func (m *Metrics) RecordRunStarted() {
	m.RunsStarted.Inc()
}

// RecordRunFinished records the outcome of Coordinator.Execute.
func (m *Metrics) RecordRunFinished(summary model.RunSummary, err error) {
	if err != nil {
		m.RunsFailed.Inc()
		return
	}
	outcome := "ok"
	if summary.Degraded() {
		outcome = "degraded"
	}
	m.RunsCompleted.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(summary.Duration.Seconds())
}

// Reporter returns a pipeline.Reporter feeding these metrics
func (m *Metrics) Reporter() *MetricsReporter {
	return &MetricsReporter{metrics: m}
}

// MetricsReporter translates the progress stream into metric updates
type MetricsReporter struct {
	metrics *Metrics
}

var _ pipeline.Reporter = (*MetricsReporter)(nil)

func (r *MetricsReporter) PhaseStarted(phase model.Phase, _, workers int) {
	r.metrics.ActiveWorkers.WithLabelValues(string(phase)).Set(float64(workers))
	r.metrics.PhaseProgress.WithLabelValues(string(phase)).Set(0)
}

func (r *MetricsReporter) Observe(msg model.ProgressMessage) {
	phase := string(msg.Phase)
	switch msg.Kind {
	case model.KindProgress:
		format := "unknown"
		if msg.Artifact != nil && msg.Artifact.Format != "" {
			format = msg.Artifact.Format
		}
		r.metrics.ItemsGenerated.WithLabelValues(phase, format).Inc()
	case model.KindError:
		r.metrics.ItemsFailed.WithLabelValues(phase).Inc()
	case model.KindDone:
		r.metrics.ActiveWorkers.WithLabelValues(phase).Dec()
	}
}

func (r *MetricsReporter) Heartbeat(s pipeline.PhaseSnapshot) {
	r.setProgress(s)
}

func (r *MetricsReporter) PhaseFinished(s pipeline.PhaseSnapshot) {
	phase := string(s.Phase)
	r.setProgress(s)
	r.metrics.ActiveWorkers.WithLabelValues(phase).Set(0)
	r.metrics.PhaseDuration.WithLabelValues(phase).Observe(s.Elapsed.Seconds())
	if s.Lost > 0 {
		r.metrics.ItemsLost.WithLabelValues(phase).Add(float64(s.Lost))
	}
	if lostWorkers := s.Workers - s.DoneWorkers; lostWorkers > 0 {
		r.metrics.WorkersLost.WithLabelValues(phase).Add(float64(lostWorkers))
	}
}

func (r *MetricsReporter) setProgress(s pipeline.PhaseSnapshot) {
	if s.Total <= 0 {
		return
	}
	accounted := s.Accounted() + s.Lost
	r.metrics.PhaseProgress.WithLabelValues(string(s.Phase)).Set(float64(accounted) / float64(s.Total))
}
