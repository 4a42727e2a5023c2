package metrics

import (
	"time"

	"mercator-hq/judgment/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LayerMetrics tracks the individual decision layers.
//
// Metrics:
//   - judgment_pipeline_learner_queries_total: learner verdicts by state
//   - judgment_pipeline_learner_entries: learned request keys
//   - judgment_pipeline_gate_decisions_total: gate results by action and rule
//   - judgment_pipeline_gate_reloads_total: rules file reloads by result
//   - judgment_pipeline_model_invocations_total: model calls by status
//   - judgment_pipeline_model_duration_seconds: model call latency
type LayerMetrics struct {
	learnerQueries *prometheus.CounterVec
	learnerEntries prometheus.Gauge

	gateDecisions *prometheus.CounterVec
	gateReloads   *prometheus.CounterVec

	modelInvocations *prometheus.CounterVec
	modelDuration    prometheus.Histogram
}

// NewLayerMetrics creates and registers layer metrics with the provided registry.
func NewLayerMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LayerMetrics {
	lm := &LayerMetrics{
		learnerQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "learner_queries_total",
				Help:      "Total number of learner queries by verdict",
			},
			[]string{"state"},
		),

		learnerEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "learner_entries",
				Help:      "Number of request keys the learner holds",
			},
		),

		gateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_decisions_total",
				Help:      "Total number of gate decisions by action and matched rule",
			},
			[]string{"action", "rule"},
		),

		gateReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_reloads_total",
				Help:      "Total number of rules file reloads by result",
			},
			[]string{"result"},
		),

		modelInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "model_invocations_total",
				Help:      "Total number of model invocations by status",
			},
			[]string{"status"},
		),

		modelDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "model_duration_seconds",
				Help:      "Duration of model invocations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),
	}

	registry.MustRegister(
		lm.learnerQueries,
		lm.learnerEntries,
		lm.gateDecisions,
		lm.gateReloads,
		lm.modelInvocations,
		lm.modelDuration,
	)

	return lm
}

// RecordLearnerQuery records a learner verdict.
func (lm *LayerMetrics) RecordLearnerQuery(state string) {
	lm.learnerQueries.WithLabelValues(state).Inc()
}

// UpdateLearnerEntries sets the learned key count.
func (lm *LayerMetrics) UpdateLearnerEntries(n int) {
	lm.learnerEntries.Set(float64(n))
}

// RecordGateDecision records a gate result.
func (lm *LayerMetrics) RecordGateDecision(action, rule string) {
	lm.gateDecisions.WithLabelValues(action, rule).Inc()
}

// RecordGateReload records a reload attempt.
func (lm *LayerMetrics) RecordGateReload(result string) {
	lm.gateReloads.WithLabelValues(result).Inc()
}

// RecordModelInvocation records a model call.
func (lm *LayerMetrics) RecordModelInvocation(duration time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	lm.modelInvocations.WithLabelValues(status).Inc()
	lm.modelDuration.Observe(duration.Seconds())
}
