// Package config provides configuration management for the judgment
// pipeline.
//
// Configuration is loaded from YAML with environment variable overrides:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("judgment.yaml")
//
// The CLI uses LoadOrDefault, which treats a missing file as "use defaults".
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention JUDGMENT_SECTION_FIELD:
//
//   - JUDGMENT_AUDIT_LOG_PATH overrides audit.log_path
//   - JUDGMENT_GATE_DEFAULT_ACTION overrides gate.default_action
//   - JUDGMENT_LEARNER_ENABLED overrides learner.enabled
//   - JUDGMENT_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	audit:
//	  enabled: true
//	  log_path: audit_trail.jsonl
//
//	gate:
//	  enabled: true
//	  default_action: ALLOW
//	  rules:
//	    - name: hold-hr-sensitive
//	      conditions:
//	        category: hr
//	        sensitivity: high
//	      action: HOLD
//	      reason: sensitive HR data needs review
//
//	learner:
//	  enabled: true
//	  confidence_threshold: 3
//
// There is no global configuration; callers pass *Config explicitly.
package config
