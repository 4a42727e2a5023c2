package pipeline

import "mercator-hq/judgment/pkg/decision"

// DecisionContext accumulates the path of a single call. It is created at
// call start and discarded once the call returns; only its Metadata snapshot
// outlives the call.
type DecisionContext struct {
	requestID   string
	invoked     []decision.Layer
	skipped     []decision.Layer
	mlInvoked   bool
	learner     decision.MatchKind
	gateAction  decision.Action
	matchedRule string
	audited     bool
}

// NewDecisionContext returns an empty context for requestID.
func NewDecisionContext(requestID string) *DecisionContext {
	return &DecisionContext{requestID: requestID}
}

// RequestID returns the call's request ID.
func (dc *DecisionContext) RequestID() string {
	return dc.requestID
}

func (dc *DecisionContext) invoke(layer decision.Layer) {
	dc.invoked = append(dc.invoked, layer)
	if layer == decision.LayerModel {
		dc.mlInvoked = true
	}
}

func (dc *DecisionContext) skip(layers ...decision.Layer) {
	dc.skipped = append(dc.skipped, layers...)
}

// Metadata returns a snapshot of the context. Layer lists are never nil so
// they encode as JSON arrays.
func (dc *DecisionContext) Metadata() decision.Metadata {
	invoked := make([]decision.Layer, len(dc.invoked))
	copy(invoked, dc.invoked)
	skipped := make([]decision.Layer, len(dc.skipped))
	copy(skipped, dc.skipped)

	return decision.Metadata{
		RequestID:     dc.requestID,
		DecisionDepth: len(invoked),
		MLInvoked:     dc.mlInvoked,
		LayersInvoked: invoked,
		LayersSkipped: skipped,
		LearnerState:  dc.learner,
		GateAction:    dc.gateAction,
		MatchedRule:   dc.matchedRule,
		AuditLogged:   dc.audited,
	}
}
