package sandbox

import "testing"

func TestSyscallTrap_RegisterAllows(t *testing.T) {
	trap := NewSyscallTrap()
	trap.Register("wasm_log", func(args []int64) (int64, error) { return 0, nil })

	if !trap.IsAllowed("wasm_log") {
		t.Error("Register() should implicitly allow")
	}
}

func TestSyscallTrap_DenyOverridesAllow(t *testing.T) {
	trap := NewSyscallTrap()
	trap.Register("exec", func(args []int64) (int64, error) { return 0, nil })
	trap.Deny("exec")

	if trap.IsAllowed("exec") {
		t.Error("Deny() should remove the name from the allow set")
	}
	if _, err := trap.Handle("exec", nil); err == nil {
		t.Error("Handle() on a denied syscall should error")
	}
}

func TestSyscallTrap_UnknownSyscall(t *testing.T) {
	trap := NewSyscallTrap()
	if _, err := trap.Handle("does_not_exist", nil); err == nil {
		t.Error("Handle() on an unregistered syscall should error")
	}
}

func TestDefaultSyscallTrap_DenySemantics(t *testing.T) {
	trap := NewDefaultSyscallTrap()

	for _, name := range []string{"open", "read", "write", "socket", "connect", "exec", "fork"} {
		if trap.IsAllowed(name) {
			t.Errorf("default trap should deny %q", name)
		}
		if _, err := trap.Handle(name, nil); err == nil {
			t.Errorf("Handle(%q) should error under the default deny stub", name)
		}
	}

	for _, name := range []string{"wasm_log", "wasm_get_time", "wasm_random", "wasm_read_sensor", "wasm_send_alert"} {
		if !trap.IsAllowed(name) {
			t.Errorf("default trap should allow %q", name)
		}
	}
}

func TestSyscallTrap_LogRecordsCalls(t *testing.T) {
	trap := NewSyscallTrap()
	trap.Register("wasm_log", func(args []int64) (int64, error) { return 1, nil })
	trap.Handle("wasm_log", []int64{1, 2})

	log := trap.Log()
	if len(log) != 1 {
		t.Fatalf("Log() len = %d, want 1", len(log))
	}
	if log[0].Name != "wasm_log" || log[0].Result != 1 {
		t.Errorf("unexpected log entry: %+v", log[0])
	}
}

func TestSyscallTrap_LogBounded(t *testing.T) {
	trap := NewSyscallTrap()
	trap.Register("noop", func(args []int64) (int64, error) { return 0, nil })

	for i := 0; i < syscallLogCap+50; i++ {
		trap.Handle("noop", nil)
	}

	log := trap.Log()
	if len(log) > syscallLogCap {
		t.Errorf("Log() len = %d, exceeds cap %d", len(log), syscallLogCap)
	}
}
