// Package logging builds the structured logger used across the pipeline.
//
// # Overview
//
// The package configures Go's log/slog from config.LoggingConfig:
//   - JSON or text output
//   - Configurable log levels (debug, info, warn, error)
//   - Optional redaction of credentials (bearer tokens, API keys, passwords)
//   - Request IDs carried on the context and added to *Context log calls
//
// # Usage
//
//	logger, err := logging.New(&cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "decision made", "action", "HOLD")
//	// {"level":"INFO","msg":"decision made","action":"HOLD","request_id":"req-123"}
//
// Components receive the *slog.Logger explicitly and add their own
// "component" attribute; there is no package-level logger.
package logging
