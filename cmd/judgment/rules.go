package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/judgment/pkg/cli"
	"mercator-hq/judgment/pkg/config"
	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/policy/gate"
)

var rulesFlags struct {
	format  string
	file    string
	request string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and evaluate gate rules",
	Long: `Validate gate rule files and evaluate requests against the gate.

Subcommands:
  validate - Check rule files for errors
  eval     - Show the gate decision for requests without calling the model`,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate rule files",
	Long: `Validate YAML rule files: every rule needs a unique name and an action
of ALLOW, HOLD or ESCALATE.

Without arguments the rules from the configuration are validated.

Examples:
  # Validate a rules file
  judgment rules validate rules.yaml

  # JSON output for CI/CD
  judgment rules validate rules.yaml --format json`,
	RunE: validateRules,
}

var rulesEvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate requests against the gate",
	Long: `Evaluate requests against the gate only. The learner, the model and the
audit log are not involved.

Requests come from --request or as newline-delimited JSON from stdin.

Examples:
  # Evaluate one request against the configured rules
  judgment rules eval --request '{"category":"hr","sensitivity":"high"}'

  # Evaluate a batch against a specific rules file
  judgment rules eval --file rules.yaml < requests.jsonl`,
	RunE: evalRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesValidateCmd, rulesEvalCmd)

	rulesValidateCmd.Flags().StringVar(&rulesFlags.format, "format", "text", "output format: text, json")

	rulesEvalCmd.Flags().StringVarP(&rulesFlags.file, "file", "f", "", "rules file (default: rules from the configuration)")
	rulesEvalCmd.Flags().StringVarP(&rulesFlags.request, "request", "r", "", "request as a JSON object")
}

// validationResult is the outcome for one validated source.
type validationResult struct {
	Source string   `json:"source"`
	Valid  bool     `json:"valid"`
	Rules  int      `json:"rules"`
	Errors []string `json:"errors,omitempty"`
}

func validateRules(cmd *cobra.Command, args []string) error {
	var results []validationResult

	if len(args) == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		results = append(results, validateConfiguredRules(&cfg.Gate))
	}
	for _, path := range args {
		results = append(results, validateRuleFile(path))
	}

	if err := writeValidationResults(cmd.OutOrStdout(), rulesFlags.format, results); err != nil {
		return err
	}

	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return cli.NewCommandError("rules validate", fmt.Errorf("%d of %d source(s) invalid", invalid, len(results)))
	}
	return nil
}

func validateRuleFile(path string) validationResult {
	rules, err := gate.LoadRules(path)
	return newValidationResult(path, rules, err)
}

func validateConfiguredRules(cfg *config.GateConfig) validationResult {
	source := cfgFile
	if cfg.RulesFile != "" {
		source = cfg.RulesFile
	}

	rules, err := loadGateRules(cfg)
	if err == nil {
		err = gate.ValidateRules(rules)
	}
	return newValidationResult(source, rules, err)
}

func newValidationResult(source string, rules []gate.Rule, err error) validationResult {
	res := validationResult{Source: source, Valid: err == nil, Rules: len(rules)}
	if err != nil {
		res.Rules = 0
		res.Errors = splitErrors(err)
	}
	return res
}

// splitErrors flattens joined errors into one message each.
func splitErrors(err error) []string {
	var le *gate.LoadError
	if errors.As(err, &le) && le.Cause != nil {
		err = le.Cause
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

func writeValidationResults(w io.Writer, format string, results []validationResult) error {
	switch strings.ToLower(format) {
	case "json":
		return (&cli.JSONFormatter{Indent: true}).FormatTo(w, results)
	case "text", "":
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(w, "✓ %s: %d rule(s)\n", r.Source, r.Rules)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", r.Source)
			for _, msg := range r.Errors {
				fmt.Fprintf(w, "  - %s\n", msg)
			}
		}
		return nil
	default:
		return cli.NewConfigError("format", fmt.Sprintf("unknown format %q (valid: text, json)", format))
	}
}

// evalResult is one output line of rules eval.
type evalResult struct {
	Request decision.Request `json:"request"`
	gate.Result
}

func evalRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gateCfg := cfg.Gate
	if rulesFlags.file != "" {
		gateCfg.Rules = nil
		gateCfg.RulesFile = rulesFlags.file
	}

	g, err := buildGate(&gateCfg, nil)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if rulesFlags.request != "" {
		in = strings.NewReader(rulesFlags.request)
	}

	return evaluateRequests(g, in, cmd.OutOrStdout())
}

// evaluateRequests writes the gate result for every JSON request in r.
// Unlike run, a malformed request aborts.
func evaluateRequests(g *gate.Gate, r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)

	for {
		var req decision.Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return cli.NewCommandError("rules eval", fmt.Errorf("invalid request: %w", err))
		}

		if err := enc.Encode(evalResult{Request: req, Result: g.Evaluate(req)}); err != nil {
			return cli.NewCommandError("rules eval", err)
		}
	}
}
