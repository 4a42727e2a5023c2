package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileRecorder appends audit records to a file.
type FileRecorder struct {
	path string

	mu     sync.Mutex
	file   *os.File
	closed bool
}

// NewFileRecorder opens (creating if needed) the log at path for appending.
// Missing parent directories are created. An unwritable path is reported
// here rather than on the first Record.
func NewFileRecorder(path string) (*FileRecorder, error) {
	if path == "" {
		return nil, NewWriteError(path, fmt.Errorf("log path is empty"))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, NewWriteError(path, fmt.Errorf("failed to create log directory: %w", err))
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, NewWriteError(path, err)
	}

	return &FileRecorder{path: path, file: f}, nil
}

// Path returns the log file path.
func (r *FileRecorder) Path() string {
	return r.path
}

// Record appends rec as one line.
func (r *FileRecorder) Record(ctx context.Context, rec *Record) error {
	line, err := marshalLine(rec)
	if err != nil {
		return NewWriteError(r.path, fmt.Errorf("failed to encode record: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return NewWriteError(r.path, ErrClosed)
	}
	if _, err := r.file.Write(line); err != nil {
		return NewWriteError(r.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// WriterRecorder appends audit records to an arbitrary writer, such as
// stdout.
type WriterRecorder struct {
	name string

	mu sync.Mutex
	w  io.Writer
}

// NewWriterRecorder creates a recorder writing to w. The name identifies the
// writer in errors.
func NewWriterRecorder(name string, w io.Writer) *WriterRecorder {
	return &WriterRecorder{name: name, w: w}
}

// Record writes rec as one line.
func (r *WriterRecorder) Record(ctx context.Context, rec *Record) error {
	line, err := marshalLine(rec)
	if err != nil {
		return NewWriteError(r.name, fmt.Errorf("failed to encode record: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.w.Write(line); err != nil {
		return NewWriteError(r.name, err)
	}
	return nil
}
