package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with defaults. Audit output goes
// to stdout so tests never create files by accident.
func NewTestConfig() *ConfigBuilder {
	cfg := *Default()
	cfg.Audit.LogPath = StdoutLogPath
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithAuditLogPath sets the audit log path.
func (b *ConfigBuilder) WithAuditLogPath(path string) *ConfigBuilder {
	b.cfg.Audit.LogPath = path
	return b
}

// WithRule appends an inline gate rule.
func (b *ConfigBuilder) WithRule(name, action string, conditions map[string]any) *ConfigBuilder {
	b.cfg.Gate.Rules = append(b.cfg.Gate.Rules, RuleConfig{
		Name:       name,
		Conditions: conditions,
		Action:     action,
	})
	return b
}

// WithRulesFile points the gate at a rules file and enables watching.
func (b *ConfigBuilder) WithRulesFile(path string, debounce time.Duration) *ConfigBuilder {
	b.cfg.Gate.RulesFile = path
	b.cfg.Gate.Watch = true
	b.cfg.Gate.WatchDebounce = debounce
	return b
}

// WithLearner enables the learner with the given threshold.
func (b *ConfigBuilder) WithLearner(threshold int) *ConfigBuilder {
	b.cfg.Learner.Enabled = true
	b.cfg.Learner.ConfidenceThreshold = threshold
	return b
}

// WithHTTPModel selects the HTTP model backend.
func (b *ConfigBuilder) WithHTTPModel(url string) *ConfigBuilder {
	b.cfg.Model.Type = "http"
	b.cfg.Model.URL = url
	return b
}

// WithTracing enables tracing against the given endpoint.
func (b *ConfigBuilder) WithTracing(endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = true
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	return b
}
