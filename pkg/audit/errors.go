package audit

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when recording to a closed recorder.
var ErrClosed = errors.New("audit recorder is closed")

// WriteError is returned when an audit record cannot be written.
type WriteError struct {
	Path  string // Log file path, or the writer's name
	Cause error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("audit write to %s failed: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// NewWriteError creates a new WriteError.
func NewWriteError(path string, cause error) *WriteError {
	return &WriteError{
		Path:  path,
		Cause: cause,
	}
}

// ReadError is returned when an audit log cannot be read or a line cannot
// be decoded.
type ReadError struct {
	Path  string
	Line  int // 1-based line number, 0 when not line specific
	Cause error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("audit log %s line %d: %v", e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("audit log %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReadError) Unwrap() error {
	return e.Cause
}
