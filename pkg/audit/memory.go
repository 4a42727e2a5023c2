package audit

import (
	"context"
	"sync"
)

// MemoryRecorder keeps audit records in memory. It is meant for tests and
// for embedding hosts that forward records elsewhere.
type MemoryRecorder struct {
	mu      sync.RWMutex
	records []Record

	// Err, when set, is returned by Record instead of storing the record.
	Err error
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record stores a copy of rec.
func (m *MemoryRecorder) Record(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return NewWriteError("memory", m.Err)
	}

	// Round-trip through the line encoding so stored records look exactly
	// like what a file recorder would have written.
	line, err := marshalLine(rec)
	if err != nil {
		return NewWriteError("memory", err)
	}
	stored, err := decodeLine(line)
	if err != nil {
		return NewWriteError("memory", err)
	}

	m.records = append(m.records, stored)
	return nil
}

// Records returns a snapshot of all stored records in write order.
func (m *MemoryRecorder) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Len returns the number of stored records.
func (m *MemoryRecorder) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
