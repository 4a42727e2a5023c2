package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/judgment/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "pipeline",
		DurationBuckets: []float64{0.001, 0.01, 0.1, 1},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_NewCollectorDefaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if collector.Registry() == nil {
		t.Fatal("Expected a registry to be created")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected namespace %q, got %q", config.DefaultMetricsNamespace, cfg.Namespace)
	}
	if len(cfg.DurationBuckets) == 0 {
		t.Error("expected default duration buckets")
	}
}

func TestCollector_RecordCall(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name   string
		path   string
		status string
	}{
		{"learner shortcut", PathLearner, StatusOK},
		{"gate allowed", PathGateInvoke, StatusOK},
		{"gate blocked", PathGateBlocked, StatusOK},
		{"direct error", PathDirect, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordCall(tt.path, tt.status, 5*time.Millisecond)

			got := testutil.ToFloat64(collector.callMetrics.callsTotal.WithLabelValues(tt.path, tt.status))
			if got != 1 {
				t.Errorf("expected 1 call for %s/%s, got %v", tt.path, tt.status, got)
			}
		})
	}
}

func TestCollector_LayerMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordLearnerQuery("miss")
	collector.RecordLearnerQuery("miss")
	collector.RecordLearnerQuery("hit")
	collector.UpdateLearnerEntries(4)
	collector.RecordGateDecision("HOLD", "hold-hr")
	collector.RecordGateDecision("ALLOW", "")
	collector.RecordGateReload(nil)
	collector.RecordGateReload(errors.New("bad yaml"))
	collector.RecordModelInvocation(time.Millisecond, nil)
	collector.RecordModelInvocation(time.Millisecond, errors.New("boom"))
	collector.RecordAuditFailure()

	lm := collector.layerMetrics
	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"learner misses", lm.learnerQueries.WithLabelValues("miss"), 2},
		{"learner hits", lm.learnerQueries.WithLabelValues("hit"), 1},
		{"learner entries", lm.learnerEntries, 4},
		{"gate hold", lm.gateDecisions.WithLabelValues("HOLD", "hold-hr"), 1},
		{"gate default", lm.gateDecisions.WithLabelValues("ALLOW", ""), 1},
		{"reload ok", lm.gateReloads.WithLabelValues(StatusOK), 1},
		{"reload error", lm.gateReloads.WithLabelValues(StatusError), 1},
		{"model ok", lm.modelInvocations.WithLabelValues(StatusOK), 1},
		{"model error", lm.modelInvocations.WithLabelValues(StatusError), 1},
		{"audit failures", collector.callMetrics.auditFailures, 1},
	}

	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordCall(PathDirect, StatusOK, time.Millisecond)
	collector.RecordLearnerQuery("hit")
	collector.RecordAuditFailure()

	if got := testutil.ToFloat64(collector.callMetrics.callsTotal.WithLabelValues(PathDirect, StatusOK)); got != 0 {
		t.Errorf("expected no calls recorded when disabled, got %v", got)
	}
	if got := testutil.ToFloat64(collector.callMetrics.auditFailures); got != 0 {
		t.Errorf("expected no audit failures recorded when disabled, got %v", got)
	}
}

func TestCollector_RuleCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordGateDecision("HOLD", "first")
	collector.RecordGateDecision("HOLD", "second")

	lm := collector.layerMetrics
	if got := testutil.ToFloat64(lm.gateDecisions.WithLabelValues("HOLD", "first")); got != 1 {
		t.Errorf("expected first rule recorded, got %v", got)
	}
	if got := testutil.ToFloat64(lm.gateDecisions.WithLabelValues("HOLD", otherRule)); got != 1 {
		t.Errorf("expected overflow rule recorded as other, got %v", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("expected first two values allowed")
	}
	if cl.Allow("c") {
		t.Error("expected third value rejected")
	}
	if !cl.Allow("a") {
		t.Error("expected known value allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("expected count 2, got %d", cl.Count())
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordCall(PathGateBlocked, StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_pipeline_calls_total{path="gate_blocked",status="ok"} 1`) {
		t.Errorf("metrics output missing call counter:\n%s", rec.Body.String())
	}
}
