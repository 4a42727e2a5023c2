package pipeline

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/model"
)

func TestWrap(t *testing.T) {
	var seen []decision.Metadata
	wrapped, err := Wrap(model.Echo,
		WithGate(newGate(t, decision.ActionAllow, holdHR)),
		WithMetadataHandler(func(m decision.Metadata) { seen = append(seen, m) }),
	)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	resp, err := wrapped(context.Background(), decision.Request{"prompt": "hello"})
	if err != nil {
		t.Fatalf("wrapped() error = %v", err)
	}
	if resp["text"] != "Response to: hello" {
		t.Errorf("expected echo response, got %v", resp)
	}

	resp, err = wrapped(context.Background(), decision.Request{"category": "hr", "sensitivity": "high"})
	if err != nil {
		t.Fatalf("wrapped() error = %v", err)
	}
	if resp[KeyDecision] != "HOLD" {
		t.Errorf("expected HOLD decision, got %v", resp)
	}

	if len(seen) != 2 {
		t.Fatalf("expected metadata for 2 calls, got %d", len(seen))
	}
	if !seen[0].MLInvoked || seen[1].MLInvoked {
		t.Errorf("unexpected mlInvoked flags: %v, %v", seen[0].MLInvoked, seen[1].MLInvoked)
	}
}

func TestWrap_NilModel(t *testing.T) {
	if _, err := Wrap(nil); !errors.Is(err, ErrNilModel) {
		t.Errorf("expected ErrNilModel, got %v", err)
	}
}

func TestWrap_ErrorSkipsHandler(t *testing.T) {
	called := false
	sentinel := errors.New("boom")
	wrapped, err := Wrap(
		func(context.Context, decision.Request) (decision.Response, error) { return nil, sentinel },
		WithMetadataHandler(func(decision.Metadata) { called = true }),
	)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	if _, err := wrapped(context.Background(), decision.Request{}); !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel error, got %v", err)
	}
	if called {
		t.Error("expected metadata handler not called on error")
	}
}
