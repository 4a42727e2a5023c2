package metrics

import (
	"time"

	"mercator-hq/judgment/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CallMetrics tracks end-to-end pipeline calls.
//
// Metrics:
//   - judgment_pipeline_calls_total: calls by path and status
//   - judgment_pipeline_call_duration_seconds: call duration by path
//   - judgment_pipeline_audit_failures_total: audit writes that failed
type CallMetrics struct {
	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	auditFailures prometheus.Counter
}

// NewCallMetrics creates and registers call metrics with the provided registry.
func NewCallMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CallMetrics {
	cm := &CallMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "calls_total",
				Help:      "Total number of pipeline calls",
			},
			[]string{"path", "status"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "call_duration_seconds",
				Help:      "Duration of pipeline calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"path"},
		),

		auditFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_failures_total",
				Help:      "Total number of audit records that could not be written",
			},
		),
	}

	registry.MustRegister(
		cm.callsTotal,
		cm.callDuration,
		cm.auditFailures,
	)

	return cm
}

// RecordCall records a completed call.
func (cm *CallMetrics) RecordCall(path, status string, duration time.Duration) {
	cm.callsTotal.WithLabelValues(path, status).Inc()
	cm.callDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordAuditFailure increments the audit failure counter.
func (cm *CallMetrics) RecordAuditFailure() {
	cm.auditFailures.Inc()
}
