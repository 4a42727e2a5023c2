package config

import "time"

// Config is the root configuration structure for the judgment pipeline.
// Each section configures one layer of the pipeline or its telemetry.
type Config struct {
	// Audit controls the append-only decision log.
	Audit AuditConfig `yaml:"audit"`

	// Gate contains the policy gate's rules and default action.
	Gate GateConfig `yaml:"gate"`

	// Learner controls the structure learner shortcut.
	Learner LearnerConfig `yaml:"learner"`

	// Model selects the model the pipeline wraps when run from the CLI.
	Model ModelConfig `yaml:"model"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AuditConfig contains configuration for the audit log.
type AuditConfig struct {
	// Enabled controls whether every call is recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LogPath is the newline-delimited JSON file records are appended to.
	// The value "-" writes records to stdout.
	// Default: "audit_trail.jsonl"
	LogPath string `yaml:"log_path"`
}

// GateConfig contains configuration for the policy gate.
type GateConfig struct {
	// Enabled controls whether requests are evaluated against rules. With
	// the gate disabled the model is called directly and nothing is learned.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// DefaultAction applies when no rule matches.
	// Options: "ALLOW", "HOLD", "ESCALATE" (case-insensitive)
	// Default: "ALLOW"
	DefaultAction string `yaml:"default_action"`

	// Rules are inline rules, evaluated in order. Mutually exclusive with
	// RulesFile.
	Rules []RuleConfig `yaml:"rules"`

	// RulesFile is a YAML file holding the rules.
	RulesFile string `yaml:"rules_file"`

	// Watch reloads RulesFile when it changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period before a reload.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// RuleConfig is one inline gate rule.
type RuleConfig struct {
	Name       string         `yaml:"name"`
	Conditions map[string]any `yaml:"conditions"`
	Action     string         `yaml:"action"`
	Reason     string         `yaml:"reason"`
}

// LearnerConfig contains configuration for the structure learner.
type LearnerConfig struct {
	// Enabled controls whether the learner is consulted and trained.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ConfidenceThreshold is how many consistent observations a structure
	// needs before the learner answers for it.
	// Default: 3
	ConfidenceThreshold int `yaml:"confidence_threshold"`
}

// ModelConfig selects the wrapped model.
type ModelConfig struct {
	// Type is the model adapter.
	// Options: "echo", "http"
	// Default: "echo"
	Type string `yaml:"type"`

	// URL is the endpoint for the "http" model.
	URL string `yaml:"url"`

	// Timeout bounds one HTTP model call.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// Headers are sent with every HTTP model call. Values may reference
	// secrets as ${secret:name}.
	Headers map[string]string `yaml:"headers"`

	// SecretsDir is a directory of secret files consulted after the
	// JUDGMENT_SECRET_* environment variables.
	SecretsDir string `yaml:"secrets_dir"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks values of sensitive attributes (tokens, keys,
	// passwords) in log output.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "judgment"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "pipeline"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for call duration (seconds).
	// Default: [0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "judgment"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
