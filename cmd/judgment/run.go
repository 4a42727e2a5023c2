package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/judgment/pkg/cli"
	"mercator-hq/judgment/pkg/config"
	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/learning"
	"mercator-hq/judgment/pkg/pipeline"
	"mercator-hq/judgment/pkg/policy/gate"
	"mercator-hq/judgment/pkg/telemetry/health"
)

// maxRequestLine bounds a single request line on input.
const maxRequestLine = 16 * 1024 * 1024

var runFlags struct {
	input          string
	follow         bool
	metricsListen  string
	learnerSummary bool
	shutdownWait   time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Decide newline-delimited JSON requests",
	Long: `Run every request through the decision pipeline.

Requests are read as newline-delimited JSON objects from stdin (or --input).
For each request one JSON line is written to stdout holding either the
response and its decision metadata, or the error for that line.

Examples:
  # Decide requests from a file
  judgment run --input requests.jsonl

  # Serve metrics and health endpoints and keep running after input ends
  judgment run --metrics-listen :9090 --follow < requests.jsonl

  # Print what the learner knows when done
  judgment run --learner-summary < requests.jsonl`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.input, "input", "i", "", "request file (default: stdin)")
	runCmd.Flags().BoolVar(&runFlags.follow, "follow", false, "keep running after input ends until interrupted")
	runCmd.Flags().StringVar(&runFlags.metricsListen, "metrics-listen", "", "address serving /metrics, /health, /ready and /version")
	runCmd.Flags().BoolVar(&runFlags.learnerSummary, "learner-summary", false, "print learned structures to stderr when done")
	runCmd.Flags().DurationVar(&runFlags.shutdownWait, "shutdown-timeout", 5*time.Second, "time allowed for flushing telemetry on exit")
}

// runResult is one output line of the run command.
type runResult struct {
	Line     int                `json:"line"`
	Response decision.Response  `json:"response,omitempty"`
	Metadata *decision.Metadata `json:"metadata,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// runStats counts processed and failed request lines.
type runStats struct {
	Processed int
	Failed    int
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	c, err := buildComponents(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), runFlags.shutdownWait)
		defer cancel()
		if err := c.Close(shutdownCtx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	if c.watcher != nil {
		go func() {
			if err := c.watcher.Watch(ctx); err != nil {
				logger.Error("rules watcher stopped", "error", err)
			}
		}()
	}

	if runFlags.metricsListen != "" {
		srv := newTelemetryServer(runFlags.metricsListen, cfg, c)
		go func() {
			logger.Info("serving telemetry", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("telemetry server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), runFlags.shutdownWait)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	in := cmd.InOrStdin()
	if runFlags.input != "" {
		f, err := os.Open(runFlags.input)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer f.Close()
		in = f
	}

	stats, err := processRequests(ctx, c.pipeline, in, cmd.OutOrStdout(), logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	logger.Info("input finished", "processed", stats.Processed, "failed", stats.Failed)

	if runFlags.learnerSummary && c.learner != nil {
		if err := writeLearnerSummary(cmd.ErrOrStderr(), c.learner); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	if runFlags.follow && ctx.Err() == nil {
		logger.Info("waiting for interrupt")
		<-ctx.Done()
	}

	if stats.Failed > 0 {
		return cli.NewCommandError("run", fmt.Errorf("%d of %d requests failed", stats.Failed, stats.Processed))
	}
	return nil
}

// processRequests decides every request line from r and writes one result
// line per request to w. Blank lines are skipped. Per-request failures are
// reported in the output and counted; only I/O failures abort.
func processRequests(ctx context.Context, p *pipeline.Pipeline, r io.Reader, w io.Writer, logger *slog.Logger) (runStats, error) {
	var stats runStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestLine)
	enc := json.NewEncoder(w)

	lineNo := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			logger.Warn("interrupted, remaining input ignored", "line", lineNo+1)
			break
		}

		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Processed++

		out := runResult{Line: lineNo}

		var req decision.Request
		if err := json.Unmarshal(line, &req); err != nil {
			stats.Failed++
			out.Error = fmt.Sprintf("invalid request: %v", err)
		} else if res, err := p.Call(ctx, req); err != nil {
			stats.Failed++
			out.Error = err.Error()
		} else {
			out.Response = res.Response
			out.Metadata = &res.Metadata
		}

		if err := enc.Encode(&out); err != nil {
			return stats, fmt.Errorf("failed to write result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read requests: %w", err)
	}

	return stats, nil
}

// writeLearnerSummary prints every learned structure as a table.
func writeLearnerSummary(w io.Writer, l *learning.Learner) error {
	entries := l.Entries()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Learner (threshold %d): %d structure(s)\n", l.Threshold(), len(entries))
	fmt.Fprintln(tw, "ACTION\tCONFIDENCE\tKEY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Action, e.Confidence, e.Key)
	}
	return tw.Flush()
}

// newTelemetryServer serves metrics and the health endpoints. Readiness
// covers the audit log and the rules file.
func newTelemetryServer(addr string, cfg *config.Config, c *components) *http.Server {
	checker := health.New(0)
	checker.RegisterCheck("pipeline", func(ctx context.Context) error {
		if c.pipeline == nil {
			return errors.New("pipeline not initialized")
		}
		return nil
	})
	if cfg.Audit.Enabled && cfg.Audit.LogPath != config.StdoutLogPath {
		path := cfg.Audit.LogPath
		checker.RegisterCheck("audit", func(ctx context.Context) error {
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
			if err != nil {
				return err
			}
			return f.Close()
		})
	}
	if c.gate != nil && cfg.Gate.RulesFile != "" {
		path := cfg.Gate.RulesFile
		checker.RegisterCheck("rules", func(ctx context.Context) error {
			_, err := gate.LoadRules(path)
			return err
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.metrics.Handler())
	health.Register(mux, checker, Version, GitCommit, BuildDate)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
