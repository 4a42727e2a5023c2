// Package audit records every pipeline decision to an append-only log of
// newline-delimited JSON.
//
// Each call produces exactly one record:
//
//	{"timestamp":"2026-01-02T15:04:05.123456789Z","requestId":"...","request":{...},"response":{...},"decisionMetadata":{...}}
//
// Records are written with a single Write call under a mutex, so lines never
// interleave. Write failures are returned to the caller as *WriteError and are
// never retried or buffered.
//
// Reading is a tooling concern only: ReadFile and Filter back the
// "audit query" command and are not used by the pipeline.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"mercator-hq/judgment/pkg/decision"
)

// Record is one audit log entry. Records are write-once.
type Record struct {
	Timestamp        time.Time         `json:"timestamp"`
	RequestID        string            `json:"requestId"`
	Request          decision.Request  `json:"request"`
	Response         decision.Response `json:"response"`
	DecisionMetadata decision.Metadata `json:"decisionMetadata"`
}

// Recorder appends audit records.
type Recorder interface {
	Record(ctx context.Context, rec *Record) error
}

// marshalLine encodes rec as a single newline-terminated JSON line. A zero
// timestamp is filled with the current UTC time.
func marshalLine(rec *Record) ([]byte, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	} else {
		rec.Timestamp = rec.Timestamp.UTC()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(line, '\n'), nil
}
