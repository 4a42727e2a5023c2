package gate

import (
	"errors"
	"fmt"
)

// ErrNoRulesFile is returned by LoadRules when the rule file does not exist.
var ErrNoRulesFile = errors.New("rules file not found")

// RuleError describes an invalid rule in a rule set.
type RuleError struct {
	Index   int    // Position of the rule in the rule set
	Name    string // Rule name, empty if missing
	Message string
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("rule #%d: %s", e.Index, e.Message)
	}
	return fmt.Sprintf("rule %q (#%d): %s", e.Name, e.Index, e.Message)
}

// NewRuleError creates a new RuleError.
func NewRuleError(index int, name, message string) *RuleError {
	return &RuleError{
		Index:   index,
		Name:    name,
		Message: message,
	}
}

// LoadError represents a failure to read or parse a rule file.
type LoadError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load rules from %q: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Cause
}
