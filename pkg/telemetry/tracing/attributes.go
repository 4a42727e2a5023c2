package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Custom keys use the "judgment.*" namespace.
const (
	AttrRequestID     = "judgment.request_id"
	AttrLearnerState  = "judgment.learner.state"
	AttrLearnerAction = "judgment.learner.action"
	AttrGateAction    = "judgment.gate.action"
	AttrGateRule      = "judgment.gate.rule"
	AttrDecisionDepth = "judgment.decision.depth"
	AttrMLInvoked     = "judgment.decision.ml_invoked"
	AttrModel         = "judgment.model"
)

// SetLearnerAttributes records a learner verdict on span. action is empty
// unless the learner produced one.
func SetLearnerAttributes(span trace.Span, state, action string) {
	span.SetAttributes(attribute.String(AttrLearnerState, state))
	if action != "" {
		span.SetAttributes(attribute.String(AttrLearnerAction, action))
	}
}

// SetGateAttributes records a gate result on span.
func SetGateAttributes(span trace.Span, action, rule string) {
	span.SetAttributes(attribute.String(AttrGateAction, action))
	if rule != "" {
		span.SetAttributes(attribute.String(AttrGateRule, rule))
	}
}

// SetDecisionAttributes records the final decision metadata on span.
func SetDecisionAttributes(span trace.Span, depth int, mlInvoked bool) {
	span.SetAttributes(
		attribute.Int(AttrDecisionDepth, depth),
		attribute.Bool(AttrMLInvoked, mlInvoked),
	)
}
