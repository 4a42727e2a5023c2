// Package gate implements the policy gate: an ordered list of exact-match
// rules evaluated first-match-wins against a request's attributes.
//
// A rule matches when every one of its conditions names a field present in
// the request with an equal value. Rules are checked in order and the first
// match decides the action; when nothing matches the gate falls back to its
// default action.
//
// # Rule Files
//
// Rules are usually loaded from YAML:
//
//	rules:
//	  - name: block-prod-deploys
//	    conditions:
//	      category: deploy
//	      environment: production
//	    action: ESCALATE
//	    reason: production deploys need sign-off
//
// A Watcher can reload the file on change; a file that fails validation
// leaves the current rules in place.
package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"mercator-hq/judgment/pkg/decision"
)

// NoMatchReason is the reason reported when no rule matches.
const NoMatchReason = "no matching rule"

// Rule is a single gate rule. Rules are immutable once handed to a Gate.
type Rule struct {
	Name       string          `yaml:"name" json:"name"`
	Conditions map[string]any  `yaml:"conditions" json:"conditions"`
	Action     decision.Action `yaml:"action" json:"action"`
	Reason     string          `yaml:"reason" json:"reason"`
}

// Matches reports whether every condition of r holds for req.
// A rule with no conditions matches every request.
func (r *Rule) Matches(req decision.Request) bool {
	for field, want := range r.Conditions {
		got, ok := req[field]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// Result is the outcome of evaluating a request against the gate.
type Result struct {
	Action      decision.Action `json:"action"`
	Reason      string          `json:"reason"`
	MatchedRule string          `json:"matchedRule"`
}

// Gate evaluates requests against an ordered rule set. The rule set can be
// swapped atomically with Replace; evaluation is safe for concurrent use.
type Gate struct {
	defaultAction decision.Action
	logger        *slog.Logger

	mu    sync.RWMutex
	rules []Rule
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the gate's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a gate from rules, validating them up front.
func New(rules []Rule, defaultAction decision.Action, opts ...Option) (*Gate, error) {
	if !defaultAction.Valid() {
		return nil, fmt.Errorf("invalid default action %q", defaultAction)
	}
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	g := &Gate{
		defaultAction: defaultAction,
		logger:        slog.Default(),
		rules:         cloneRules(rules),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "gate")

	return g, nil
}

// Evaluate returns the action of the first rule matching req, or the
// default action when none does.
func (g *Gate) Evaluate(req decision.Request) Result {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for i := range g.rules {
		rule := &g.rules[i]
		if rule.Matches(req) {
			return Result{
				Action:      rule.Action,
				Reason:      rule.Reason,
				MatchedRule: rule.Name,
			}
		}
	}

	return Result{
		Action: g.defaultAction,
		Reason: NoMatchReason,
	}
}

// Replace validates rules and swaps them in as the active rule set.
// On validation failure the current rules stay active.
func (g *Gate) Replace(rules []Rule) error {
	if err := ValidateRules(rules); err != nil {
		return err
	}

	next := cloneRules(rules)

	g.mu.Lock()
	previous := len(g.rules)
	g.rules = next
	g.mu.Unlock()

	g.logger.Info("rule set replaced",
		"previous_rules", previous,
		"rules", len(next),
	)
	return nil
}

// Rules returns a copy of the active rule set.
func (g *Gate) Rules() []Rule {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneRules(g.rules)
}

// DefaultAction returns the action applied when no rule matches.
func (g *Gate) DefaultAction() decision.Action {
	return g.defaultAction
}

// ValidateRules checks that every rule has a unique name and a known action.
// All problems are reported together.
func ValidateRules(rules []Rule) error {
	var errs []error
	seen := make(map[string]int, len(rules))

	for i, r := range rules {
		if r.Name == "" {
			errs = append(errs, NewRuleError(i, "", "name is required"))
		} else if first, dup := seen[r.Name]; dup {
			errs = append(errs, NewRuleError(i, r.Name, fmt.Sprintf("duplicate name (first defined at #%d)", first)))
		} else {
			seen[r.Name] = i
		}

		if r.Action == "" {
			errs = append(errs, NewRuleError(i, r.Name, "action is required"))
		} else if !r.Action.Valid() {
			errs = append(errs, NewRuleError(i, r.Name, fmt.Sprintf("unknown action %q", r.Action)))
		}
	}

	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		if r.Conditions != nil {
			out[i].Conditions = make(map[string]any, len(r.Conditions))
			for k, v := range r.Conditions {
				out[i].Conditions[k] = v
			}
		}
	}
	return out
}

// valuesEqual compares a request value with a condition value. Numbers are
// compared by value regardless of their Go type, so a YAML integer matches
// a JSON-decoded float64. No other conversion is performed.
func valuesEqual(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		wf, ok := toFloat(want)
		return ok && gf == wf
	}
	if got == nil || want == nil {
		return got == nil && want == nil
	}
	if !reflect.TypeOf(got).Comparable() || !reflect.TypeOf(want).Comparable() {
		return reflect.DeepEqual(got, want)
	}
	return got == want
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
