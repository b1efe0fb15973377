package hooks

import (
	"context"
	"errors"
	"testing"

	"wasmguard/spec"
)

func TestRegistry_RunNoHooksIsNoop(t *testing.T) {
	r := NewRegistry()
	if err := r.Run(context.Background(), PreStart, &spec.InstanceState{}); err != nil {
		t.Errorf("expected no error for empty registry, got %v", err)
	}
}

func TestRegistry_RunInOrder(t *testing.T) {
	r := NewRegistry()
	var order []int

	r.Register(PostCreate, func(ctx context.Context, s *spec.InstanceState) error {
		order = append(order, 1)
		return nil
	})
	r.Register(PostCreate, func(ctx context.Context, s *spec.InstanceState) error {
		order = append(order, 2)
		return nil
	})

	if err := r.Run(context.Background(), PostCreate, &spec.InstanceState{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected hooks to run in registration order, got %v", order)
	}
}

func TestRegistry_RunStopsOnFirstError(t *testing.T) {
	r := NewRegistry()
	ran := false

	r.Register(PreKill, func(ctx context.Context, s *spec.InstanceState) error {
		return errors.New("boom")
	})
	r.Register(PreKill, func(ctx context.Context, s *spec.InstanceState) error {
		ran = true
		return nil
	})

	err := r.Run(context.Background(), PreKill, &spec.InstanceState{})
	if err == nil {
		t.Fatal("expected error from first hook")
	}
	if ran {
		t.Error("second hook should not have run after first failed")
	}
}

func TestRegistry_HooksAreIsolatedPerEvent(t *testing.T) {
	r := NewRegistry()
	r.Register(PreStart, func(ctx context.Context, s *spec.InstanceState) error { return nil })

	if got := r.Count(PreStart); got != 1 {
		t.Errorf("expected 1 PreStart hook, got %d", got)
	}
	if got := r.Count(PostStart); got != 0 {
		t.Errorf("expected 0 PostStart hooks, got %d", got)
	}
}

func TestRegistry_HookReceivesState(t *testing.T) {
	r := NewRegistry()
	var seenID string

	r.Register(PostStop, func(ctx context.Context, s *spec.InstanceState) error {
		seenID = s.ID
		return nil
	})

	state := &spec.InstanceState{State: spec.State{ID: "inst-42"}}
	if err := r.Run(context.Background(), PostStop, state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seenID != "inst-42" {
		t.Errorf("expected hook to observe ID inst-42, got %q", seenID)
	}
}
