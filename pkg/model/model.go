// Package model defines the model collaborator the pipeline wraps, plus two
// adapters: an echo model for demos and tests, and an HTTP model that posts
// requests as JSON to a remote endpoint.
package model

import (
	"context"

	"mercator-hq/judgment/pkg/decision"
)

// Func invokes a model. Errors are returned to the pipeline's caller
// unchanged.
type Func func(ctx context.Context, req decision.Request) (decision.Response, error)

// EchoName is the model name reported by Echo.
const EchoName = "echo"

// Echo answers every request with a canned text built from its "prompt"
// field. A missing prompt is treated as empty.
func Echo(ctx context.Context, req decision.Request) (decision.Response, error) {
	prompt, _ := req["prompt"].(string)
	return decision.Response{
		"text":  "Response to: " + prompt,
		"model": EchoName,
	}, nil
}
