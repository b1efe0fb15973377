package instance

import (
	"context"
	"testing"
)

func TestKillRunningInstance(t *testing.T) {
	inst, _ := mustCreate(t, "kill-running", "main")
	if err := Start(context.Background(), inst); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := Kill(context.Background(), inst, "operator requested stop"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if inst.GetState().Status != "killed" {
		t.Errorf("status = %v, want killed", inst.GetState().Status)
	}
}

func TestKillAlreadyKilledIsNoop(t *testing.T) {
	inst, _ := mustCreate(t, "kill-twice", "main")
	if err := Kill(context.Background(), inst, "first"); err != nil {
		t.Fatalf("first Kill: %v", err)
	}
	if err := Kill(context.Background(), inst, "second"); err != nil {
		t.Fatalf("second Kill should be a no-op, got error: %v", err)
	}
}
