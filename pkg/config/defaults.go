package config

import "time"

// Default values for configuration fields.
const (
	// Audit defaults
	DefaultAuditEnabled = true
	DefaultAuditLogPath = "audit_trail.jsonl"

	// StdoutLogPath makes the audit log write to stdout.
	StdoutLogPath = "-"

	// Gate defaults
	DefaultGateEnabled       = true
	DefaultGateDefaultAction = "ALLOW"
	DefaultGateWatch         = false
	DefaultGateWatchDebounce = 100 * time.Millisecond

	// Learner defaults
	DefaultLearnerEnabled             = false
	DefaultLearnerConfidenceThreshold = 3

	// Model defaults
	DefaultModelType    = "echo"
	DefaultModelTimeout = 60 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultLoggingRedactSecrets = true
	DefaultMetricsEnabled       = true
	DefaultMetricsNamespace     = "judgment"
	DefaultMetricsSubsystem     = "pipeline"
	DefaultTracingSampler       = "ratio"
	DefaultTracingSamplingRate  = 0.1
	DefaultTracingServiceName   = "judgment"
	DefaultTracingInsecure      = true
	DefaultTracingTimeout       = 10 * time.Second
)

// DefaultDurationBuckets are the call duration histogram buckets in seconds,
// spanning learner shortcuts (sub-millisecond) through model calls.
var DefaultDurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// Default returns a configuration with every field at its default: auditing
// on, the gate on with ALLOW and no rules, and the learner off.
func Default() *Config {
	cfg := &Config{
		Audit: AuditConfig{
			Enabled: DefaultAuditEnabled,
		},
		Gate: GateConfig{
			Enabled: DefaultGateEnabled,
			Watch:   DefaultGateWatch,
		},
		Learner: LearnerConfig{
			Enabled: DefaultLearnerEnabled,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				RedactSecrets: DefaultLoggingRedactSecrets,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Insecure: DefaultTracingInsecure,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
// Booleans are left alone since false is a meaningful setting; their
// defaults come from Default, which loading starts from.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Audit defaults
	if cfg.Audit.LogPath == "" {
		cfg.Audit.LogPath = DefaultAuditLogPath
	}

	// Gate defaults
	if cfg.Gate.DefaultAction == "" {
		cfg.Gate.DefaultAction = DefaultGateDefaultAction
	}
	if cfg.Gate.WatchDebounce == 0 {
		cfg.Gate.WatchDebounce = DefaultGateWatchDebounce
	}

	// Learner defaults
	if cfg.Learner.ConfidenceThreshold == 0 {
		cfg.Learner.ConfidenceThreshold = DefaultLearnerConfidenceThreshold
	}

	// Model defaults
	if cfg.Model.Type == "" {
		cfg.Model.Type = DefaultModelType
	}
	if cfg.Model.Timeout == 0 {
		cfg.Model.Timeout = DefaultModelTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
