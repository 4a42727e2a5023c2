package pipeline

import (
	"context"
	"testing"

	"mercator-hq/judgment/pkg/audit"
	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/telemetry/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCall_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	p := newPipeline(t, &countingModel{},
		WithGate(newGate(t, decision.ActionAllow)),
		WithLearner(newLearner(t, 3)),
		WithRecorder(audit.NewMemoryRecorder()),
		WithTracer(tracing.NewWithProvider(tp)),
	)

	if _, err := p.Call(context.Background(), decision.Request{"category": "hr"}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	spans := sr.Ended()
	names := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		names[s.Name()] = s
	}

	root, ok := names["pipeline.call"]
	if !ok {
		t.Fatalf("missing pipeline.call span, got %d spans", len(spans))
	}
	for _, name := range []string{"learner.query", "gate.evaluate", "model.invoke", "audit.record"} {
		s, ok := names[name]
		if !ok {
			t.Errorf("missing %s span", name)
			continue
		}
		if s.Parent().SpanID() != root.SpanContext().SpanID() {
			t.Errorf("%s is not a child of pipeline.call", name)
		}
	}
}
