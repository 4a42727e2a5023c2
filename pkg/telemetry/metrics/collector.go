package metrics

import (
	"sync"
	"time"

	"mercator-hq/judgment/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Call paths through the pipeline, used as the "path" label.
const (
	PathLearner     = "learner"
	PathGateInvoke  = "gate_invoke"
	PathGateBlocked = "gate_blocked"
	PathDirect      = "direct"
)

// Call outcomes, used as the "status" label.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// otherRule replaces rule names once the cardinality limit is reached.
const otherRule = "other"

// Collector owns every pipeline metric and the registry they live in.
// All Record methods are no-ops when metrics are disabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	callMetrics  *CallMetrics
	layerMetrics *LayerMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	http.Handle("/metrics", collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		callMetrics:        NewCallMetrics(cfg, registry),
		layerMetrics:       NewLayerMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// Enabled reports whether metrics are recorded.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// RecordCall records a completed pipeline call.
//
// Parameters:
//   - path: one of PathLearner, PathGateInvoke, PathGateBlocked, PathDirect
//   - status: StatusOK or StatusError
//   - duration: wall time of the call
func (c *Collector) RecordCall(path, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.callMetrics.RecordCall(path, status, duration)
}

// RecordAuditFailure records an audit write that failed.
func (c *Collector) RecordAuditFailure() {
	if !c.config.Enabled {
		return
	}

	c.callMetrics.RecordAuditFailure()
}

// RecordLearnerQuery records a learner verdict ("hit", "partial", "miss").
func (c *Collector) RecordLearnerQuery(state string) {
	if !c.config.Enabled {
		return
	}

	c.layerMetrics.RecordLearnerQuery(state)
}

// UpdateLearnerEntries sets the number of learned request keys.
func (c *Collector) UpdateLearnerEntries(n int) {
	if !c.config.Enabled {
		return
	}

	c.layerMetrics.UpdateLearnerEntries(n)
}

// RecordGateDecision records a gate result. rule is empty when no rule
// matched.
func (c *Collector) RecordGateDecision(action, rule string) {
	if !c.config.Enabled {
		return
	}

	if rule != "" && !c.cardinalityLimiter.Allow(rule) {
		rule = otherRule
	}
	c.layerMetrics.RecordGateDecision(action, rule)
}

// RecordGateReload records a rules file reload attempt.
func (c *Collector) RecordGateReload(err error) {
	if !c.config.Enabled {
		return
	}

	result := StatusOK
	if err != nil {
		result = StatusError
	}
	c.layerMetrics.RecordGateReload(result)
}

// RecordModelInvocation records a model call and its latency.
func (c *Collector) RecordModelInvocation(duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	c.layerMetrics.RecordModelInvocation(duration, err)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label value is allowed. Returns true if the value
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
