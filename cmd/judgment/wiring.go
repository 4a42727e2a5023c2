package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/judgment/pkg/audit"
	"mercator-hq/judgment/pkg/cli"
	"mercator-hq/judgment/pkg/config"
	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/learning"
	"mercator-hq/judgment/pkg/model"
	"mercator-hq/judgment/pkg/pipeline"
	"mercator-hq/judgment/pkg/policy/gate"
	"mercator-hq/judgment/pkg/secrets"
	"mercator-hq/judgment/pkg/telemetry/metrics"
	"mercator-hq/judgment/pkg/telemetry/tracing"
)

// components holds everything a run needs. Optional layers are nil when
// disabled in the configuration.
type components struct {
	pipeline *pipeline.Pipeline
	learner  *learning.Learner
	gate     *gate.Gate
	watcher  *gate.Watcher
	recorder audit.Recorder
	metrics  *metrics.Collector
	tracer   *tracing.Tracer

	closers []io.Closer
}

// buildComponents wires the pipeline described by cfg. Audit records for
// the "-" path go to stdout.
func buildComponents(cfg *config.Config, logger *slog.Logger, stdout io.Writer) (*components, error) {
	c := &components{
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, cli.WrapConfigError("telemetry.tracing", err)
	}
	c.tracer = tracer

	m, err := buildModel(&cfg.Model, logger)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(c.metrics),
		pipeline.WithTracer(c.tracer),
	}

	if cfg.Gate.Enabled {
		g, err := buildGate(&cfg.Gate, logger)
		if err != nil {
			return nil, err
		}
		c.gate = g
		opts = append(opts, pipeline.WithGate(g))

		if cfg.Gate.Watch {
			w, err := gate.NewWatcher(g, cfg.Gate.RulesFile, cfg.Gate.WatchDebounce, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create rules watcher: %w", err)
			}
			w.OnReload = c.metrics.RecordGateReload
			c.watcher = w
		}
	}

	if cfg.Learner.Enabled {
		l, err := learning.New(cfg.Learner.ConfidenceThreshold, logger)
		if err != nil {
			return nil, cli.WrapConfigError("learner.confidence_threshold", err)
		}
		c.learner = l
		opts = append(opts, pipeline.WithLearner(l))
	}

	if cfg.Audit.Enabled {
		rec, err := buildRecorder(&cfg.Audit, stdout)
		if err != nil {
			return nil, err
		}
		c.recorder = rec
		if closer, ok := rec.(io.Closer); ok {
			c.closers = append(c.closers, closer)
		}
		opts = append(opts, pipeline.WithRecorder(rec))
	}

	p, err := pipeline.New(m, opts...)
	if err != nil {
		c.Close(context.Background())
		return nil, err
	}
	c.pipeline = p

	logger.Info("pipeline ready",
		"gate", c.gate != nil,
		"learner", c.learner != nil,
		"audit", c.recorder != nil,
		"model", cfg.Model.Type,
		"tracing", c.tracer.Enabled(),
	)

	return c, nil
}

// Close releases the audit log, stops the watcher and flushes traces.
func (c *components) Close(ctx context.Context) error {
	var errs []error
	if c.watcher != nil {
		if err := c.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.tracer != nil {
		if err := c.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildGate creates the gate from inline rules or the rules file.
func buildGate(cfg *config.GateConfig, logger *slog.Logger) (*gate.Gate, error) {
	defaultAction, err := decision.ParseAction(cfg.DefaultAction)
	if err != nil {
		return nil, cli.WrapConfigError("gate.default_action", err)
	}

	rules, err := loadGateRules(cfg)
	if err != nil {
		return nil, err
	}

	g, err := gate.New(rules, defaultAction, gate.WithLogger(logger))
	if err != nil {
		return nil, cli.WrapConfigError("gate.rules", err)
	}
	return g, nil
}

// loadGateRules returns the configured rules, reading the rules file when
// one is set.
func loadGateRules(cfg *config.GateConfig) ([]gate.Rule, error) {
	if cfg.RulesFile != "" {
		rules, err := gate.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, cli.WrapConfigError("gate.rules_file", err)
		}
		return rules, nil
	}

	rules := make([]gate.Rule, 0, len(cfg.Rules))
	for i, rc := range cfg.Rules {
		action, err := decision.ParseAction(rc.Action)
		if err != nil {
			return nil, cli.WrapConfigError(fmt.Sprintf("gate.rules[%d].action", i), err)
		}
		rules = append(rules, gate.Rule{
			Name:       rc.Name,
			Conditions: rc.Conditions,
			Action:     action,
			Reason:     rc.Reason,
		})
	}
	return rules, nil
}

func buildRecorder(cfg *config.AuditConfig, stdout io.Writer) (audit.Recorder, error) {
	if cfg.LogPath == config.StdoutLogPath {
		return audit.NewWriterRecorder("stdout", stdout), nil
	}
	rec, err := audit.NewFileRecorder(cfg.LogPath)
	if err != nil {
		return nil, cli.WrapConfigError("audit.log_path", err)
	}
	return rec, nil
}

func buildModel(cfg *config.ModelConfig, logger *slog.Logger) (model.Func, error) {
	switch cfg.Type {
	case model.EchoName, "":
		return model.Echo, nil
	case "http":
		headers, err := resolveHeaders(cfg, logger)
		if err != nil {
			return nil, err
		}
		m, err := model.NewHTTP(model.HTTPConfig{
			URL:     cfg.URL,
			Timeout: cfg.Timeout,
			Headers: headers,
		}, logger)
		if err != nil {
			return nil, cli.WrapConfigError("model", err)
		}
		return m.Func(), nil
	default:
		return nil, cli.NewConfigError("model.type", fmt.Sprintf("unknown model type %q", cfg.Type))
	}
}

// resolveHeaders substitutes ${secret:name} references in the model
// headers, looking in the environment first and then in SecretsDir.
func resolveHeaders(cfg *config.ModelConfig, logger *slog.Logger) (map[string]string, error) {
	providers := []secrets.Provider{secrets.NewEnvProvider(secrets.DefaultEnvPrefix)}
	if cfg.SecretsDir != "" {
		fp, err := secrets.NewFileProvider(cfg.SecretsDir)
		if err != nil {
			return nil, cli.WrapConfigError("model.secrets_dir", err)
		}
		providers = append(providers, fp)
	}

	headers, err := secrets.NewResolver(logger, providers...).ResolveMap(context.Background(), cfg.Headers)
	if err != nil {
		return nil, cli.WrapConfigError("model.headers", err)
	}
	return headers, nil
}
