package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/judgment/pkg/audit"
	"mercator-hq/judgment/pkg/cli"
	"mercator-hq/judgment/pkg/config"
	"mercator-hq/judgment/pkg/decision"
)

var auditFlags struct {
	file         string
	requestID    string
	gateAction   string
	learnerState string
	modelInvoked string
	since        string
	until        string
	limit        int
	format       string
	output       string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
	Long: `Inspect the append-only audit log written by the run command.

Subcommands:
  query - Query audit records with filters`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	Long: `Query audit records with filters. Records keep log order; when more
records match than --limit allows, the most recent ones are shown.

Time Format:
  RFC3339, e.g. "2025-11-19T00:00:00Z"

Examples:
  # Everything the gate held
  judgment audit query --gate-action HOLD

  # Learner shortcuts of the last day as CSV
  judgment audit query --learner-state hit --since 2025-11-19T00:00:00Z --format csv

  # One request as JSON
  judgment audit query --request-id 6f1c... --format json`,
	RunE: queryAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd)

	auditQueryCmd.Flags().StringVar(&auditFlags.file, "file", "", "audit log path (default: audit.log_path from the configuration)")
	auditQueryCmd.Flags().StringVar(&auditFlags.requestID, "request-id", "", "filter by request ID")
	auditQueryCmd.Flags().StringVar(&auditFlags.gateAction, "gate-action", "", "filter by gate action (ALLOW, HOLD, ESCALATE)")
	auditQueryCmd.Flags().StringVar(&auditFlags.learnerState, "learner-state", "", "filter by learner state (hit, partial, miss)")
	auditQueryCmd.Flags().StringVar(&auditFlags.modelInvoked, "model-invoked", "", "filter by whether the model ran (true, false)")
	auditQueryCmd.Flags().StringVar(&auditFlags.since, "since", "", "only records at or after this time (RFC3339)")
	auditQueryCmd.Flags().StringVar(&auditFlags.until, "until", "", "only records at or before this time (RFC3339)")
	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", audit.DefaultLimit, "max results")
	auditQueryCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	auditQueryCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")
}

func queryAudit(cmd *cobra.Command, args []string) error {
	path := auditFlags.file
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Audit.LogPath
	}
	if path == config.StdoutLogPath {
		return cli.NewConfigError("audit.log_path", "the audit log is written to stdout and cannot be queried")
	}

	filter, err := buildAuditFilter()
	if err != nil {
		return err
	}

	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	records, err := audit.ReadFile(path)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}
	matched := filter.Apply(records)
	if matched == nil {
		matched = []audit.Record{}
	}

	var w io.Writer = cmd.OutOrStdout()
	if auditFlags.output != "" {
		f, err := os.Create(auditFlags.output)
		if err != nil {
			return cli.NewCommandError("audit query", err)
		}
		defer f.Close()
		w = f
	}

	if err := formatter.FormatTo(w, matched); err != nil {
		return cli.NewCommandError("audit query", err)
	}
	return nil
}

// buildAuditFilter turns the query flags into a validated filter.
func buildAuditFilter() (*audit.Filter, error) {
	filter := &audit.Filter{
		RequestID:    auditFlags.requestID,
		LearnerState: decision.MatchKind(auditFlags.learnerState),
		Limit:        auditFlags.limit,
	}

	if auditFlags.gateAction != "" {
		action, err := decision.ParseAction(auditFlags.gateAction)
		if err != nil {
			return nil, cli.NewConfigError("gate-action", err.Error())
		}
		filter.GateAction = action
	}

	if auditFlags.modelInvoked != "" {
		invoked, err := strconv.ParseBool(auditFlags.modelInvoked)
		if err != nil {
			return nil, cli.NewConfigError("model-invoked", fmt.Sprintf("invalid boolean %q", auditFlags.modelInvoked))
		}
		filter.ModelInvoked = &invoked
	}

	var err error
	if filter.Since, err = parseTimeFlag("since", auditFlags.since); err != nil {
		return nil, err
	}
	if filter.Until, err = parseTimeFlag("until", auditFlags.until); err != nil {
		return nil, err
	}

	if err := filter.Validate(); err != nil {
		return nil, cli.NewConfigError("filter", err.Error())
	}
	return filter, nil
}

func parseTimeFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, cli.NewConfigError(name, fmt.Sprintf("invalid time %q (expected RFC3339)", value))
	}
	return &t, nil
}
