package decision

// Metadata describes the path one request took through the pipeline. It is
// returned to the caller alongside the response and written to the audit
// log verbatim.
type Metadata struct {
	RequestID string `json:"requestId"`

	// DecisionDepth is the number of layers actually invoked.
	DecisionDepth int `json:"decisionDepth"`

	MLInvoked     bool    `json:"mlInvoked"`
	LayersInvoked []Layer `json:"layersInvoked"`
	LayersSkipped []Layer `json:"layersSkipped"`

	// LearnerState is empty when no learner is configured.
	LearnerState MatchKind `json:"learnerState,omitempty"`

	// GateAction is empty when the gate was skipped or is not configured.
	GateAction  Action `json:"gateAction,omitempty"`
	MatchedRule string `json:"matchedRule,omitempty"`

	AuditLogged bool `json:"auditLogged"`
}

// Invoked reports whether layer appears in LayersInvoked.
func (m *Metadata) Invoked(layer Layer) bool {
	return containsLayer(m.LayersInvoked, layer)
}

// Skipped reports whether layer appears in LayersSkipped.
func (m *Metadata) Skipped(layer Layer) bool {
	return containsLayer(m.LayersSkipped, layer)
}

func containsLayer(layers []Layer, layer Layer) bool {
	for _, l := range layers {
		if l == layer {
			return true
		}
	}
	return false
}
