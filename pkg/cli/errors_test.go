package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "with field",
			err:  &ConfigError{Field: "gate.default_action", Message: "invalid action"},
			want: "config error in gate.default_action: invalid action",
		},
		{
			name: "without field",
			err:  &ConfigError{Message: "failed to load"},
			want: "config error: failed to load",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapConfigError(t *testing.T) {
	cause := errors.New("file not found")
	err := WrapConfigError("gate.rules_file", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}
	if err.Message != cause.Error() {
		t.Errorf("Message = %q, want %q", err.Message, cause.Error())
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("run", underlyingErr)

	expected := "command run failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"command error", NewCommandError("run", errors.New("boom")), ExitFailure},
		{"config error", NewConfigError("audit.log_path", "required"), ExitConfig},
		{"wrapped config error", fmt.Errorf("startup: %w", NewConfigError("", "bad")), ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
