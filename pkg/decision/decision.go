// Package decision defines the vocabulary shared by every layer of the
// decision pipeline: requests, responses, gate actions, learner verdicts and
// layer names.
package decision

import (
	"fmt"
	"strings"
)

// Request is an open attribute map describing one decision request.
// Values are expected to be scalars (string, number, bool). Every field is
// optional.
type Request map[string]any

// Response is whatever the pipeline hands back to the caller: either the
// model's output or a synthesized decision.
type Response map[string]any

// Action is a gate or learner verdict.
type Action string

const (
	// ActionAllow lets the request through to the model.
	ActionAllow Action = "ALLOW"

	// ActionHold stops the request pending review.
	ActionHold Action = "HOLD"

	// ActionEscalate stops the request and routes it to a human.
	ActionEscalate Action = "ESCALATE"
)

// Actions lists every supported action in a stable order.
var Actions = []Action{ActionAllow, ActionHold, ActionEscalate}

// ParseAction parses an action name case-insensitively.
// Unknown names, including the legacy "SKIP", are rejected.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q (valid: ALLOW, HOLD, ESCALATE)", s)
	}
	return a, nil
}

// Valid reports whether a is one of the supported actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAllow, ActionHold, ActionEscalate:
		return true
	default:
		return false
	}
}

// String returns the action name.
func (a Action) String() string {
	return string(a)
}

// UnmarshalYAML parses an action from YAML, applying ParseAction.
func (a *Action) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MatchKind is the learner's verdict for a request.
type MatchKind string

const (
	// MatchHit means a confident entry exists; its action may be applied
	// without consulting the gate or the model.
	MatchHit MatchKind = "hit"

	// MatchPartial means an entry exists but has not reached the threshold.
	MatchPartial MatchKind = "partial"

	// MatchMiss means no entry exists for the request's structure.
	MatchMiss MatchKind = "miss"
)

// Layer names a pipeline stage as it appears in decision metadata.
type Layer string

const (
	LayerLearner Layer = "learner"
	LayerGate    Layer = "gate"
	LayerModel   Layer = "model"
)
