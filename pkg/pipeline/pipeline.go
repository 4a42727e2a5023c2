package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mercator-hq/judgment/pkg/audit"
	"mercator-hq/judgment/pkg/config"
	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/model"
	"mercator-hq/judgment/pkg/policy/gate"
	"mercator-hq/judgment/pkg/telemetry/logging"
	"mercator-hq/judgment/pkg/telemetry/metrics"
	"mercator-hq/judgment/pkg/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNilModel is returned by New when no model function is given.
var ErrNilModel = errors.New("pipeline: model function is nil")

// Response keys of synthesized (non-model) responses.
const (
	KeyDecision = "decision"
	KeySource   = "source"
	KeyReason   = "reason"

	// SourceLearner is the KeySource value of learner shortcut responses.
	SourceLearner = "learner"
)

// PolicyGate evaluates a request against ordered rules. *gate.Gate
// implements it.
type PolicyGate interface {
	Evaluate(req decision.Request) gate.Result
}

// StructureLearner remembers which action requests of a given structure
// received. *learning.Learner implements it.
type StructureLearner interface {
	Query(req decision.Request) (decision.MatchKind, decision.Action)
	Learn(req decision.Request, action decision.Action)
	Len() int
}

// Result is the outcome of a successful call.
type Result struct {
	Response decision.Response `json:"response"`
	Metadata decision.Metadata `json:"metadata"`
}

// Pipeline runs requests through the decision layers. A Pipeline is safe
// for concurrent use when its learner and recorder are.
type Pipeline struct {
	model    model.Func
	learner  StructureLearner
	gate     PolicyGate
	recorder audit.Recorder
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	logger   *slog.Logger

	onMetadata func(decision.Metadata)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLearner enables the structure learner layer.
func WithLearner(l StructureLearner) Option {
	return func(p *Pipeline) {
		p.learner = l
	}
}

// WithGate enables the policy gate layer. Without a gate every request goes
// straight to the model.
func WithGate(g PolicyGate) Option {
	return func(p *Pipeline) {
		p.gate = g
	}
}

// WithRecorder enables auditing.
func WithRecorder(r audit.Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithMetrics records call and layer metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.metrics = c
		}
	}
}

// WithTracer emits spans through t.
func WithTracer(t *tracing.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetadataHandler registers fn to receive the metadata of every
// successful call. Wrap relies on it since a model.Func returns only the
// response.
func WithMetadataHandler(fn func(decision.Metadata)) Option {
	return func(p *Pipeline) {
		p.onMetadata = fn
	}
}

// New creates a pipeline around m. Layers not configured through options
// are absent: no learner, no gate and no auditing.
func New(m model.Func, opts ...Option) (*Pipeline, error) {
	if m == nil {
		return nil, ErrNilModel
	}

	p := &Pipeline{
		model:  m,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.metrics == nil {
		p.metrics = metrics.NewCollector(&config.MetricsConfig{Enabled: false}, nil)
	}
	if p.tracer == nil {
		p.tracer = tracing.Noop()
	}
	p.logger = p.logger.With("component", "pipeline")

	return p, nil
}

// CallOption configures a single call.
type CallOption func(*callOptions)

type callOptions struct {
	requestID string
}

// WithRequestID sets the call's request ID. Without it the ID carried by
// ctx (logging.WithRequestID) is used, or a new UUID is generated.
func WithRequestID(id string) CallOption {
	return func(o *callOptions) {
		o.requestID = id
	}
}

// Call runs req through the configured layers and returns the response with
// the decision metadata.
//
// A model error is returned as-is: nothing is learned and no audit record
// is written. An audit failure is returned as an *audit.WriteError.
func (p *Pipeline) Call(ctx context.Context, req decision.Request, opts ...CallOption) (*Result, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	requestID := co.requestID
	if requestID == "" {
		requestID = logging.RequestIDFromContext(ctx)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, requestID)

	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.call",
		trace.WithAttributes(attribute.String(tracing.AttrRequestID, requestID)))
	defer span.End()

	dc := NewDecisionContext(requestID)

	resp, path, err := p.decide(ctx, req, dc)
	if err != nil {
		p.metrics.RecordCall(path, metrics.StatusError, time.Since(start))
		tracing.SetStatus(span, err)
		return nil, err
	}

	if p.recorder != nil {
		dc.audited = true
		if err := p.record(ctx, req, resp, dc); err != nil {
			p.metrics.RecordCall(path, metrics.StatusError, time.Since(start))
			tracing.SetStatus(span, err)
			return nil, err
		}
	}

	meta := dc.Metadata()
	p.metrics.RecordCall(path, metrics.StatusOK, time.Since(start))
	tracing.SetDecisionAttributes(span, meta.DecisionDepth, meta.MLInvoked)
	tracing.SetStatus(span, nil)

	p.logger.DebugContext(ctx, "decision made",
		"path", path,
		"depth", meta.DecisionDepth,
		"ml_invoked", meta.MLInvoked,
		"gate_action", meta.GateAction,
		"learner_state", meta.LearnerState,
	)

	if p.onMetadata != nil {
		p.onMetadata(meta)
	}

	return &Result{Response: resp, Metadata: meta}, nil
}

// decide walks the layers and returns the response and the metrics path.
func (p *Pipeline) decide(ctx context.Context, req decision.Request, dc *DecisionContext) (decision.Response, string, error) {
	if p.learner != nil {
		state, action := p.queryLearner(ctx, req)
		dc.invoke(decision.LayerLearner)
		dc.learner = state

		if state == decision.MatchHit {
			dc.skip(decision.LayerGate, decision.LayerModel)
			return decision.Response{
				KeyDecision: string(action),
				KeySource:   SourceLearner,
			}, metrics.PathLearner, nil
		}
	}

	if p.gate == nil {
		resp, err := p.invokeModel(ctx, req, dc)
		return resp, metrics.PathDirect, err
	}

	result := p.evaluateGate(ctx, req)
	dc.invoke(decision.LayerGate)
	dc.gateAction = result.Action
	dc.matchedRule = result.MatchedRule

	var (
		resp decision.Response
		path string
	)
	if result.Action == decision.ActionAllow {
		var err error
		resp, err = p.invokeModel(ctx, req, dc)
		if err != nil {
			return nil, metrics.PathGateInvoke, err
		}
		path = metrics.PathGateInvoke
	} else {
		dc.skip(decision.LayerModel)
		resp = decision.Response{
			KeyDecision: string(result.Action),
			KeyReason:   result.Reason,
		}
		path = metrics.PathGateBlocked
	}

	if p.learner != nil {
		p.learner.Learn(req, result.Action)
		p.metrics.UpdateLearnerEntries(p.learner.Len())
	}

	return resp, path, nil
}

func (p *Pipeline) queryLearner(ctx context.Context, req decision.Request) (decision.MatchKind, decision.Action) {
	_, span := p.tracer.Start(ctx, "learner.query")
	defer span.End()

	state, action := p.learner.Query(req)
	tracing.SetLearnerAttributes(span, string(state), string(action))
	p.metrics.RecordLearnerQuery(string(state))

	return state, action
}

func (p *Pipeline) evaluateGate(ctx context.Context, req decision.Request) gate.Result {
	_, span := p.tracer.Start(ctx, "gate.evaluate")
	defer span.End()

	result := p.gate.Evaluate(req)
	tracing.SetGateAttributes(span, string(result.Action), result.MatchedRule)
	p.metrics.RecordGateDecision(string(result.Action), result.MatchedRule)

	return result
}

func (p *Pipeline) invokeModel(ctx context.Context, req decision.Request, dc *DecisionContext) (decision.Response, error) {
	ctx, span := p.tracer.Start(ctx, "model.invoke")
	defer span.End()

	dc.invoke(decision.LayerModel)

	start := time.Now()
	resp, err := p.model(ctx, req)
	p.metrics.RecordModelInvocation(time.Since(start), err)
	tracing.SetStatus(span, err)

	if err != nil {
		p.logger.WarnContext(ctx, "model invocation failed", "error", err)
		return nil, err
	}
	return resp, nil
}

func (p *Pipeline) record(ctx context.Context, req decision.Request, resp decision.Response, dc *DecisionContext) error {
	ctx, span := p.tracer.Start(ctx, "audit.record")
	defer span.End()

	err := p.recorder.Record(ctx, &audit.Record{
		Timestamp:        time.Now().UTC(),
		RequestID:        dc.requestID,
		Request:          req,
		Response:         resp,
		DecisionMetadata: dc.Metadata(),
	})
	tracing.SetStatus(span, err)

	if err != nil {
		p.metrics.RecordAuditFailure()
		p.logger.ErrorContext(ctx, "failed to write audit record", "error", err)
		return err
	}
	return nil
}
