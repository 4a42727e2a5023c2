package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"mercator-hq/judgment/pkg/decision"
)

const (
	// DefaultLimit is the number of records returned when a filter sets none.
	DefaultLimit = 100

	// MaxLimit caps the number of records returned by one query.
	MaxLimit = 10000

	// maxLineSize bounds a single audit line while reading.
	maxLineSize = 16 * 1024 * 1024
)

// Filter selects audit records. Zero-valued fields match everything.
type Filter struct {
	RequestID    string
	GateAction   decision.Action
	LearnerState decision.MatchKind
	ModelInvoked *bool
	Since        *time.Time
	Until        *time.Time

	// Limit caps the result size; 0 means DefaultLimit. Results keep log
	// order and the most recent records are kept when the limit applies.
	Limit int
}

// Validate checks the filter's parameters.
func (f *Filter) Validate() error {
	if f.Limit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", f.Limit)
	}
	if f.Limit > MaxLimit {
		return fmt.Errorf("limit must be <= %d, got %d", MaxLimit, f.Limit)
	}
	if f.GateAction != "" && !f.GateAction.Valid() {
		return fmt.Errorf("invalid gate action %q", f.GateAction)
	}
	switch f.LearnerState {
	case "", decision.MatchHit, decision.MatchPartial, decision.MatchMiss:
	default:
		return fmt.Errorf("invalid learner state %q (valid: hit, partial, miss)", f.LearnerState)
	}
	if f.Since != nil && f.Until != nil && f.Since.After(*f.Until) {
		return fmt.Errorf("since must be before until")
	}
	return nil
}

// Matches reports whether rec passes every set criterion.
func (f *Filter) Matches(rec *Record) bool {
	md := &rec.DecisionMetadata
	if f.RequestID != "" && rec.RequestID != f.RequestID {
		return false
	}
	if f.GateAction != "" && md.GateAction != f.GateAction {
		return false
	}
	if f.LearnerState != "" && md.LearnerState != f.LearnerState {
		return false
	}
	if f.ModelInvoked != nil && md.MLInvoked != *f.ModelInvoked {
		return false
	}
	if f.Since != nil && rec.Timestamp.Before(*f.Since) {
		return false
	}
	if f.Until != nil && rec.Timestamp.After(*f.Until) {
		return false
	}
	return true
}

// Apply returns the records matching f, honoring its limit.
func (f *Filter) Apply(records []Record) []Record {
	limit := f.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	var out []Record
	for i := range records {
		if f.Matches(&records[i]) {
			out = append(out, records[i])
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// ReadFile reads every record in the audit log at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Cause: err}
	}
	defer f.Close()

	return Decode(path, f)
}

// Decode reads newline-delimited records from r. Blank lines are skipped.
// The name identifies the source in errors.
func Decode(name string, r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		rec, err := decodeLine(line)
		if err != nil {
			return nil, &ReadError{Path: name, Line: lineNo, Cause: err}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ReadError{Path: name, Cause: err}
	}

	return records, nil
}

func decodeLine(line []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
