package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/judgment/pkg/audit"
	"mercator-hq/judgment/pkg/cli"
	"mercator-hq/judgment/pkg/decision"
)

func resetAuditFlags() {
	auditFlags.file = ""
	auditFlags.requestID = ""
	auditFlags.gateAction = ""
	auditFlags.learnerState = ""
	auditFlags.modelInvoked = ""
	auditFlags.since = ""
	auditFlags.until = ""
	auditFlags.limit = audit.DefaultLimit
	auditFlags.format = "text"
	auditFlags.output = ""
}

// writeAuditLog writes three records one minute apart starting at base.
func writeAuditLog(t *testing.T, base time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	rec, err := audit.NewFileRecorder(path)
	if err != nil {
		t.Fatalf("NewFileRecorder() error = %v", err)
	}
	defer rec.Close()

	metas := []decision.Metadata{
		{RequestID: "a", DecisionDepth: 2, MLInvoked: true, GateAction: decision.ActionAllow},
		{RequestID: "b", DecisionDepth: 2, GateAction: decision.ActionHold, MatchedRule: "hold-hr", LearnerState: decision.MatchMiss},
		{RequestID: "c", DecisionDepth: 1, LearnerState: decision.MatchHit},
	}
	for i, md := range metas {
		md.AuditLogged = true
		err := rec.Record(context.Background(), &audit.Record{
			Timestamp:        base.Add(time.Duration(i) * time.Minute),
			RequestID:        md.RequestID,
			Request:          decision.Request{"n": i},
			Response:         decision.Response{"ok": true},
			DecisionMetadata: md,
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	return path
}

func TestQueryAudit(t *testing.T) {
	base := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	path := writeAuditLog(t, base)

	tests := []struct {
		name    string
		setup   func()
		wantIDs []string
	}{
		{
			name:    "no filter",
			setup:   func() {},
			wantIDs: []string{"a", "b", "c"},
		},
		{
			name:    "gate action",
			setup:   func() { auditFlags.gateAction = "hold" },
			wantIDs: []string{"b"},
		},
		{
			name:    "learner state",
			setup:   func() { auditFlags.learnerState = "hit" },
			wantIDs: []string{"c"},
		},
		{
			name:    "model invoked",
			setup:   func() { auditFlags.modelInvoked = "false" },
			wantIDs: []string{"b", "c"},
		},
		{
			name:    "time window",
			setup:   func() { auditFlags.since = "2025-11-20T10:01:00Z"; auditFlags.until = "2025-11-20T10:01:30Z" },
			wantIDs: []string{"b"},
		},
		{
			name:    "limit keeps most recent",
			setup:   func() { auditFlags.limit = 2 },
			wantIDs: []string{"b", "c"},
		},
		{
			name:    "request id without match",
			setup:   func() { auditFlags.requestID = "zzz" },
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetAuditFlags()
			defer resetAuditFlags()
			auditFlags.file = path
			auditFlags.format = "json"
			tt.setup()

			cmd, out := testCommand(nil)
			if err := queryAudit(cmd, nil); err != nil {
				t.Fatalf("queryAudit() error = %v", err)
			}

			var records []audit.Record
			if err := json.Unmarshal(out.Bytes(), &records); err != nil {
				t.Fatalf("output is not valid JSON: %v\n%s", err, out.String())
			}
			got := make([]string, len(records))
			for i, r := range records {
				got[i] = r.RequestID
			}
			if strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("request IDs = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestQueryAudit_CSVOutputFile(t *testing.T) {
	resetAuditFlags()
	defer resetAuditFlags()

	auditFlags.file = writeAuditLog(t, time.Now().UTC())
	auditFlags.format = "csv"
	auditFlags.output = filepath.Join(t.TempDir(), "out.csv")

	cmd, stdout := testCommand(nil)
	if err := queryAudit(cmd, nil); err != nil {
		t.Fatalf("queryAudit() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected nothing on stdout, got %q", stdout.String())
	}

	data, err := os.ReadFile(auditFlags.output)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 4 || rows[2][4] != "HOLD" || rows[2][5] != "hold-hr" {
		t.Errorf("unexpected CSV rows %v", rows)
	}
}

func TestQueryAudit_Errors(t *testing.T) {
	path := writeAuditLog(t, time.Now().UTC())

	tests := []struct {
		name          string
		setup         func()
		wantConfigErr bool
	}{
		{"bad gate action", func() { auditFlags.gateAction = "SKIP" }, true},
		{"bad learner state", func() { auditFlags.learnerState = "maybe" }, true},
		{"bad bool", func() { auditFlags.modelInvoked = "sometimes" }, true},
		{"bad time", func() { auditFlags.since = "yesterday" }, true},
		{"inverted window", func() {
			auditFlags.since = "2025-11-21T00:00:00Z"
			auditFlags.until = "2025-11-20T00:00:00Z"
		}, true},
		{"limit too large", func() { auditFlags.limit = audit.MaxLimit + 1 }, true},
		{"bad format", func() { auditFlags.format = "junit" }, true},
		{"stdout log", func() { auditFlags.file = "-" }, true},
		{"missing log", func() { auditFlags.file = "/nonexistent/audit.jsonl" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetAuditFlags()
			defer resetAuditFlags()
			auditFlags.file = path
			tt.setup()

			cmd, _ := testCommand(nil)
			err := queryAudit(cmd, nil)
			if err == nil {
				t.Fatal("expected error")
			}

			var cfgErr *cli.ConfigError
			if got := errors.As(err, &cfgErr); got != tt.wantConfigErr {
				t.Errorf("config error = %v, want %v (err: %v)", got, tt.wantConfigErr, err)
			}
		})
	}
}
