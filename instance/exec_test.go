package instance

import (
	"context"
	"testing"
)

func TestExecRequiresRunning(t *testing.T) {
	inst, _ := mustCreate(t, "exec-not-running", "main")
	if _, err := Exec(context.Background(), inst, "wasm_memory_size", nil); err == nil {
		t.Error("expected error executing on a non-running instance")
	}
}

func TestExecMemorySize(t *testing.T) {
	inst, _ := mustCreate(t, "exec-ok", "main")
	if err := Start(context.Background(), inst); err != nil {
		t.Fatalf("Start: %v", err)
	}
	result, err := Exec(context.Background(), inst, "wasm_memory_size", nil)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if result != inst.Memory.Size() {
		t.Errorf("Exec wasm_memory_size = %d, want %d", result, inst.Memory.Size())
	}
}

func TestExecDeniedCapability(t *testing.T) {
	inst, _ := mustCreate(t, "exec-denied", "main")
	if err := Start(context.Background(), inst); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// strict policy does not grant MemoryGrow.
	if _, err := Exec(context.Background(), inst, "wasm_memory_grow", []uint32{1}); err == nil {
		t.Error("expected capability-denied error for wasm_memory_grow under strict policy")
	}
}

func TestExecTracedWhenDebuggerEnabled(t *testing.T) {
	inst, _ := mustCreate(t, "exec-traced", "main")
	if err := Start(context.Background(), inst); err != nil {
		t.Fatalf("Start: %v", err)
	}
	inst.Debugger.Enable()
	if _, err := Exec(context.Background(), inst, "wasm_memory_size", nil); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	trace := inst.Debugger.Tracer().GetTrace()
	if len(trace.Syscalls) == 0 {
		t.Error("expected a traced syscall entry after Exec with debugger enabled")
	}
}
