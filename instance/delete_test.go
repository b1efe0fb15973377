package instance

import (
	"context"
	"os"
	"testing"
)

func TestDeleteCreatedInstance(t *testing.T) {
	inst, _ := mustCreate(t, "delete-created", "main")
	if err := Delete(context.Background(), inst, false); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(inst.StateDir); !os.IsNotExist(err) {
		t.Errorf("expected state dir removed, stat err = %v", err)
	}
}

func TestDeleteRunningWithoutForceFails(t *testing.T) {
	inst, _ := mustCreate(t, "delete-running", "main")
	if err := Start(context.Background(), inst); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := Delete(context.Background(), inst, false); err == nil {
		t.Error("expected error deleting running instance without force")
	}
}

func TestDeleteRunningWithForceSucceeds(t *testing.T) {
	inst, _ := mustCreate(t, "delete-forced", "main")
	if err := Start(context.Background(), inst); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := Delete(context.Background(), inst, true); err != nil {
		t.Fatalf("Delete with force: %v", err)
	}
	if _, err := os.Stat(inst.StateDir); !os.IsNotExist(err) {
		t.Errorf("expected state dir removed, stat err = %v", err)
	}
}
