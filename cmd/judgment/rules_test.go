package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"mercator-hq/judgment/pkg/cli"
	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/policy/gate"
)

func TestValidateRuleFile(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantValid  bool
		wantRules  int
		wantErrors int
	}{
		{
			name:      "valid file",
			content:   hrRules,
			wantValid: true,
			wantRules: 2,
		},
		{
			name:      "bare list",
			content:   "- name: a\n  action: allow\n",
			wantValid: true,
			wantRules: 1,
		},
		{
			name:       "unknown action",
			content:    "rules:\n  - name: a\n    action: SKIP\n",
			wantErrors: 1,
		},
		{
			name:       "missing name and duplicate",
			content:    "rules:\n  - action: HOLD\n  - name: b\n    action: HOLD\n  - name: b\n    action: ALLOW\n",
			wantErrors: 2,
		},
		{
			name:       "invalid yaml",
			content:    "rules: [",
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validateRuleFile(writeFile(t, "rules.yaml", tt.content))

			if res.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", res.Valid, tt.wantValid, res.Errors)
			}
			if res.Rules != tt.wantRules {
				t.Errorf("Rules = %d, want %d", res.Rules, tt.wantRules)
			}
			if len(res.Errors) != tt.wantErrors {
				t.Errorf("Errors = %v, want %d", res.Errors, tt.wantErrors)
			}
		})
	}
}

func TestValidateRuleFile_Missing(t *testing.T) {
	res := validateRuleFile("/nonexistent/rules.yaml")
	if res.Valid || len(res.Errors) != 1 {
		t.Errorf("expected one error for missing file, got %+v", res)
	}
}

func TestValidateRules_Command(t *testing.T) {
	valid := writeFile(t, "valid.yaml", hrRules)
	invalid := writeFile(t, "invalid.yaml", "rules:\n  - name: a\n    action: DENY\n")

	t.Run("all valid", func(t *testing.T) {
		rulesFlags.format = "text"
		cmd, out := testCommand(nil)

		if err := validateRules(cmd, []string{valid}); err != nil {
			t.Fatalf("validateRules() error = %v", err)
		}
		if !strings.Contains(out.String(), "✓") || !strings.Contains(out.String(), "2 rule(s)") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("one invalid", func(t *testing.T) {
		rulesFlags.format = "json"
		defer func() { rulesFlags.format = "text" }()
		cmd, out := testCommand(nil)

		err := validateRules(cmd, []string{valid, invalid})
		var cmdErr *cli.CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("expected *cli.CommandError, got %v", err)
		}

		var results []validationResult
		if err := json.Unmarshal(out.Bytes(), &results); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(results) != 2 || !results[0].Valid || results[1].Valid {
			t.Errorf("unexpected results %+v", results)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		rulesFlags.format = "xml"
		defer func() { rulesFlags.format = "text" }()
		cmd, _ := testCommand(nil)

		err := validateRules(cmd, []string{valid})
		var cfgErr *cli.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("expected *cli.ConfigError, got %v", err)
		}
	})
}

func TestEvaluateRequests(t *testing.T) {
	rules, err := gate.ParseRules([]byte(hrRules))
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}
	g, err := gate.New(rules, decision.ActionAllow, gate.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("gate.New() error = %v", err)
	}

	input := `{"category":"hr","sensitivity":"high"}
{"category":"hr","sensitivity":"low"}
{"category":"legal"}`

	out := &bytes.Buffer{}
	if err := evaluateRequests(g, strings.NewReader(input), out); err != nil {
		t.Fatalf("evaluateRequests() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	want := []struct {
		action string
		rule   string
	}{
		{"HOLD", "hold-hr-sensitive"},
		{"ALLOW", ""},
		{"ESCALATE", "escalate-legal"},
	}
	for i, line := range lines {
		var got map[string]any
		if err := json.Unmarshal([]byte(line), &got); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i+1, err)
		}
		if got["action"] != want[i].action || got["matchedRule"] != want[i].rule {
			t.Errorf("line %d = %v, want %s/%q", i+1, got, want[i].action, want[i].rule)
		}
		if _, ok := got["request"].(map[string]any); !ok {
			t.Errorf("line %d missing request echo", i+1)
		}
	}
}

func TestEvaluateRequests_InvalidInput(t *testing.T) {
	g, err := gate.New(nil, decision.ActionHold)
	if err != nil {
		t.Fatalf("gate.New() error = %v", err)
	}

	err = evaluateRequests(g, strings.NewReader(`{"a":1} [1,2]`), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "invalid request") {
		t.Errorf("expected invalid request error, got %v", err)
	}
}
