package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "gate.default_action").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateGate(&cfg.Gate)...)
	errs = append(errs, validateLearner(&cfg.Learner)...)
	errs = append(errs, validateModel(&cfg.Model)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.LogPath == "" {
		errs = append(errs, FieldError{
			Field:   "audit.log_path",
			Message: "log path is required when audit is enabled",
		})
	}

	return errs
}

// validActions mirrors decision.Actions.
var validActions = map[string]bool{
	"ALLOW":    true,
	"HOLD":     true,
	"ESCALATE": true,
}

func validAction(s string) bool {
	return validActions[strings.ToUpper(strings.TrimSpace(s))]
}

func validateGate(cfg *GateConfig) []FieldError {
	var errs []FieldError

	if !validAction(cfg.DefaultAction) {
		errs = append(errs, FieldError{
			Field:   "gate.default_action",
			Message: fmt.Sprintf("invalid action %q (valid: ALLOW, HOLD, ESCALATE)", cfg.DefaultAction),
		})
	}

	if len(cfg.Rules) > 0 && cfg.RulesFile != "" {
		errs = append(errs, FieldError{
			Field:   "gate.rules",
			Message: "inline rules and rules_file are mutually exclusive",
		})
	}

	if cfg.Watch && cfg.RulesFile == "" {
		errs = append(errs, FieldError{
			Field:   "gate.watch",
			Message: "watch requires rules_file",
		})
	}

	if cfg.WatchDebounce < 0 {
		errs = append(errs, FieldError{
			Field:   "gate.watch_debounce",
			Message: "watch debounce must be non-negative",
		})
	}

	seen := make(map[string]bool, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		field := fmt.Sprintf("gate.rules[%d]", i)

		if rule.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "name is required"})
		} else if seen[rule.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate rule name %q", rule.Name)})
		}
		seen[rule.Name] = true

		if !validAction(rule.Action) {
			errs = append(errs, FieldError{
				Field:   field + ".action",
				Message: fmt.Sprintf("invalid action %q (valid: ALLOW, HOLD, ESCALATE)", rule.Action),
			})
		}
	}

	return errs
}

func validateLearner(cfg *LearnerConfig) []FieldError {
	var errs []FieldError

	if cfg.ConfidenceThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "learner.confidence_threshold",
			Message: "confidence threshold must be at least 1",
		})
	}

	return errs
}

func validateModel(cfg *ModelConfig) []FieldError {
	var errs []FieldError

	switch cfg.Type {
	case "echo":
	case "http":
		if cfg.URL == "" {
			errs = append(errs, FieldError{
				Field:   "model.url",
				Message: "url is required for the http model",
			})
		} else if u, err := url.Parse(cfg.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "model.url",
				Message: fmt.Sprintf("invalid URL %q", cfg.URL),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "model.type",
			Message: fmt.Sprintf("unknown model type %q (valid: echo, http)", cfg.Type),
		})
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "model.timeout",
			Message: "timeout must be non-negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (valid: json, text)", cfg.Logging.Format),
		})
	}

	for i, b := range cfg.Metrics.DurationBuckets {
		if i > 0 && b <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	tracing := &cfg.Tracing
	switch tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (valid: always, never, ratio)", tracing.Sampler),
		})
	}
	if tracing.SampleRatio < 0 || tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	if tracing.Enabled && tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}
