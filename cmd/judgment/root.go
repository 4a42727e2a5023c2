package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/judgment/pkg/cli"
	"mercator-hq/judgment/pkg/config"
	"mercator-hq/judgment/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "judgment",
	Short: "Judgment - layered decision pipeline for model calls",
	Long: `Judgment wraps a model call in a layered decision pipeline:

  - Structure learner: requests whose shape has been decided often enough
    get the learned decision without further evaluation
  - Policy gate: ordered rules decide ALLOW, HOLD or ESCALATE
  - Model: invoked only when the gate allows the request

Every decision, with the layers it went through, is appended to an audit log.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "judgment.yaml", "config file path (defaults apply when missing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

// loadConfig loads cfgFile with environment overrides. A missing file
// yields the defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError("", err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg and installs it as the slog
// default. Logs go to w, stderr when nil.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(&cfg.Telemetry.Logging, w)
	if err != nil {
		return nil, cli.WrapConfigError("telemetry.logging", err)
	}
	slog.SetDefault(logger)
	return logger, nil
}
