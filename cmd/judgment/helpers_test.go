package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"mercator-hq/judgment/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns defaults with the audit log inside a temp directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Audit.LogPath = filepath.Join(t.TempDir(), "audit.jsonl")
	cfg.Telemetry.Metrics.Namespace = "test"
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// testCommand returns a command whose output is captured in the buffer.
func testCommand(in io.Reader) (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	if in != nil {
		cmd.SetIn(in)
	}
	return cmd, out
}

const hrRules = `rules:
  - name: hold-hr-sensitive
    conditions:
      category: hr
      sensitivity: high
    action: HOLD
    reason: sensitive HR data needs review
  - name: escalate-legal
    conditions:
      category: legal
    action: ESCALATE
`
