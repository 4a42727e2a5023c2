package gate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/judgment/pkg/decision"
)

func writeRules(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRules(t, t.TempDir(), `
rules:
  - name: hold-sensitive
    conditions:
      sensitivity: high
    action: hold
    reason: sensitive data
  - name: escalate-admin
    conditions:
      role: admin
      priority: 2
    action: ESCALATE
`)

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("LoadRules() returned %d rules, want 2", len(rules))
	}
	if rules[0].Name != "hold-sensitive" || rules[0].Action != decision.ActionHold {
		t.Errorf("rules[0] = %+v, want hold-sensitive HOLD", rules[0])
	}
	if rules[1].Action != decision.ActionEscalate {
		t.Errorf("rules[1].Action = %q, want ESCALATE", rules[1].Action)
	}
	if rules[1].Conditions["priority"] != 2 {
		t.Errorf("rules[1].Conditions[priority] = %v (%T), want int 2", rules[1].Conditions["priority"], rules[1].Conditions["priority"])
	}
}

func TestParseRules_BareList(t *testing.T) {
	rules, err := ParseRules([]byte(`
- name: r1
  conditions: {category: email}
  action: ALLOW
`))
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}
	if len(rules) != 1 || rules[0].Name != "r1" {
		t.Errorf("ParseRules() = %+v, want one rule r1", rules)
	}
}

func TestParseRules_Empty(t *testing.T) {
	rules, err := ParseRules([]byte(""))
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("ParseRules() = %+v, want no rules", rules)
	}
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "invalid yaml", data: "rules: [", wantErr: "invalid YAML"},
		{name: "scalar document", data: "hello", wantErr: "must be a mapping or a list"},
		{name: "legacy skip action", data: "rules:\n  - name: r1\n    action: SKIP\n", wantErr: `unknown action "SKIP"`},
		{name: "duplicate names", data: "rules:\n  - {name: a, action: HOLD}\n  - {name: a, action: HOLD}\n", wantErr: "duplicate name"},
		{name: "missing action", data: "rules:\n  - {name: a}\n", wantErr: "action is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.data))
			if err == nil {
				t.Fatal("ParseRules() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseRules() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrNoRulesFile) {
		t.Fatalf("LoadRules() error = %v, want ErrNoRulesFile", err)
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("LoadRules() error = %T, want *LoadError", err)
	}
}
