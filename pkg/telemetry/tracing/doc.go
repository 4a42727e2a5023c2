// Package tracing provides OpenTelemetry tracing for the judgment pipeline.
//
// Every pipeline call produces a "pipeline.call" span with children for the
// layers it touched: "learner.query", "gate.evaluate", "model.invoke" and
// "audit.record". Spans are exported over OTLP gRPC and sampled according to
// the configured strategy (always, never, ratio).
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "gate.evaluate")
//	tracing.SetGateAttributes(span, "HOLD", "hold-hr")
//	span.End()
//
// # Trace Context Propagation
//
// The HTTP model backend forwards the W3C trace context with Inject:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// When tracing is disabled, New returns a noop tracer.
package tracing
