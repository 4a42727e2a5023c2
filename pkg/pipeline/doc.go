// Package pipeline wraps a model invocation function with the three decision
// layers: the structure learner, the policy gate and the audit recorder.
//
// Each call takes exactly one terminal path:
//
//	learner hit        -> synthesized {"decision", "source": "learner"}
//	gate ALLOW         -> model invoked, its response returned
//	gate HOLD/ESCALATE -> synthesized {"decision", "reason"}
//	no gate            -> model invoked directly, nothing learned
//
// and, when a recorder is configured, writes exactly one audit record.
//
// # Usage
//
//	g, _ := gate.New(rules, decision.ActionAllow)
//	l, _ := learning.New(3, logger)
//	p, err := pipeline.New(model.Echo,
//	    pipeline.WithGate(g),
//	    pipeline.WithLearner(l),
//	    pipeline.WithRecorder(recorder),
//	)
//	res, err := p.Call(ctx, decision.Request{"category": "hr"})
//
// Model errors are returned unchanged; the call is neither learned from nor
// audited. The pipeline adds no timeouts or retries around the model and
// passes ctx through untouched.
package pipeline
