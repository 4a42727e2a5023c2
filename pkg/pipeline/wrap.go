package pipeline

import (
	"context"

	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/model"
)

// Wrap returns a model.Func that runs every call through a pipeline built
// from m and opts. The wrapped function returns only the response; use
// WithMetadataHandler to observe the decision metadata.
func Wrap(m model.Func, opts ...Option) (model.Func, error) {
	p, err := New(m, opts...)
	if err != nil {
		return nil, err
	}
	return p.Func(), nil
}

// Func exposes the pipeline as a model.Func.
func (p *Pipeline) Func() model.Func {
	return func(ctx context.Context, req decision.Request) (decision.Response, error) {
		res, err := p.Call(ctx, req)
		if err != nil {
			return nil, err
		}
		return res.Response, nil
	}
}
