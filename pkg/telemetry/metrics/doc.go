// Package metrics provides Prometheus metrics for the judgment pipeline.
//
// # Metrics
//
//   - Call metrics: calls by path (learner, gate_invoke, gate_blocked,
//     direct) and status, call duration, audit failures
//   - Layer metrics: learner verdicts and size, gate decisions by action
//     and rule, rules reloads, model invocations and latency
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordCall(metrics.PathGateBlocked, metrics.StatusOK, time.Millisecond)
//
// Rule names come from user configuration, so the rule label is capped by a
// CardinalityLimiter; excess names are reported as "other".
//
// # Prometheus Endpoint
//
//	# HELP judgment_pipeline_calls_total Total number of pipeline calls
//	# TYPE judgment_pipeline_calls_total counter
//	judgment_pipeline_calls_total{path="gate_blocked",status="ok"} 12
package metrics
