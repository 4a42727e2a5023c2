// Package learning implements the structure learner: a per-process memory of
// which action the gate produced for each request shape. Once an action has
// been observed often enough for a shape, the learner can answer for the gate
// and the model.
package learning

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"mercator-hq/judgment/pkg/decision"
)

// DefaultThreshold is the confidence at which an entry starts producing hits.
const DefaultThreshold = 3

// DefaultKey is the structural key of a request carrying none of the key fields.
const DefaultKey = "default"

// KeyFields are the request fields that define a request's structure, in the
// order they appear in the key.
var KeyFields = []string{"category", "action", "sensitivity", "resource_type", "role"}

// Entry is the learned action for one structural key.
type Entry struct {
	Key        string          `json:"key"`
	Action     decision.Action `json:"action"`
	Confidence int             `json:"confidence"`
}

// Learner counts how consistently each request structure received the same
// action. It is safe for concurrent use.
type Learner struct {
	threshold int
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
}

// New creates a learner that reports hits once an entry's confidence reaches
// threshold. A nil logger uses slog.Default().
func New(threshold int, logger *slog.Logger) (*Learner, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("confidence threshold must be at least 1, got %d", threshold)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Learner{
		threshold: threshold,
		logger:    logger.With("component", "learner"),
		entries:   make(map[string]*Entry),
	}, nil
}

// Threshold returns the configured confidence threshold.
func (l *Learner) Threshold() int {
	return l.threshold
}

// Key derives the structural key of a request. Each key field present in
// the request contributes "field:value"; contributions are joined with "|".
// A request with none of the fields maps to DefaultKey.
func Key(req decision.Request) string {
	parts := make([]string, 0, len(KeyFields))
	for _, field := range KeyFields {
		v, ok := req[field]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%v", field, v))
	}
	if len(parts) == 0 {
		return DefaultKey
	}
	return strings.Join(parts, "|")
}

// Query returns the learner's verdict for req. The action is only meaningful
// for a hit.
func (l *Learner) Query(req decision.Request) (decision.MatchKind, decision.Action) {
	key := Key(req)

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return decision.MatchMiss, ""
	}
	if e.Confidence >= l.threshold {
		return decision.MatchHit, e.Action
	}
	return decision.MatchPartial, ""
}

// Learn records that req received action. A repeated action raises the
// entry's confidence; a different action replaces it and resets confidence
// to 1.
func (l *Learner) Learn(req decision.Request, action decision.Action) {
	key := Key(req)

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	switch {
	case !ok:
		l.entries[key] = &Entry{Key: key, Action: action, Confidence: 1}
	case e.Action == action:
		e.Confidence++
		if e.Confidence == l.threshold {
			l.logger.Debug("structure reached confidence threshold",
				"key", key,
				"action", action,
				"confidence", e.Confidence,
			)
		}
	default:
		l.logger.Debug("structure contradicted, resetting confidence",
			"key", key,
			"previous_action", e.Action,
			"action", action,
		)
		e.Action = action
		e.Confidence = 1
	}
}

// Entries returns a snapshot of all entries sorted by key.
func (l *Learner) Entries() []Entry {
	l.mu.Lock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of learned structures.
func (l *Learner) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset forgets every learned structure.
func (l *Learner) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*Entry)
}
