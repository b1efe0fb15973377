package debugger

import "testing"

func TestBreakpointManager_SetAndShouldBreak(t *testing.T) {
	m := NewBreakpointManager()

	id1 := m.Set(0, 10)
	id2 := m.Set(1, 20)

	if len(m.List()) != 2 {
		t.Fatalf("List() len = %d, want 2", len(m.List()))
	}

	if !m.ShouldBreak(breakpointAddress(0, 10)) {
		t.Error("ShouldBreak() = false for function 0 offset 10, want true")
	}
	if m.ShouldBreak(breakpointAddress(0, 15)) {
		t.Error("ShouldBreak() = true for unset address, want false")
	}

	if !m.Clear(id1) {
		t.Error("Clear(id1) = false, want true")
	}
	if len(m.List()) != 1 {
		t.Fatalf("List() len after clear = %d, want 1", len(m.List()))
	}
	if m.ShouldBreak(breakpointAddress(0, 10)) {
		t.Error("ShouldBreak() = true after clear, want false")
	}

	if !m.Clear(id2) {
		t.Error("Clear(id2) = false, want true")
	}
}

func TestBreakpointManager_EnableDisable(t *testing.T) {
	m := NewBreakpointManager()
	id := m.Set(0, 10)

	if !m.ShouldBreak(breakpointAddress(0, 10)) {
		t.Fatal("expected breakpoint to fire while enabled")
	}

	if !m.Disable(id) {
		t.Fatal("Disable() = false, want true")
	}
	if m.ShouldBreak(breakpointAddress(0, 10)) {
		t.Error("ShouldBreak() = true while disabled, want false")
	}

	if !m.Enable(id) {
		t.Fatal("Enable() = false, want true")
	}
	if !m.ShouldBreak(breakpointAddress(0, 10)) {
		t.Error("ShouldBreak() = false after re-enable, want true")
	}
}

func TestBreakpointManager_HitCount(t *testing.T) {
	m := NewBreakpointManager()
	id := m.Set(2, 5)

	m.ShouldBreak(breakpointAddress(2, 5))
	m.ShouldBreak(breakpointAddress(2, 5))
	m.ShouldBreak(breakpointAddress(2, 5))

	count, ok := m.GetHitCount(id)
	if !ok {
		t.Fatal("GetHitCount() ok = false, want true")
	}
	if count != 3 {
		t.Errorf("GetHitCount() = %d, want 3", count)
	}
}

func TestBreakpointManager_ClearAll(t *testing.T) {
	m := NewBreakpointManager()
	m.Set(0, 1)
	m.Set(1, 2)

	m.ClearAll()
	if len(m.List()) != 0 {
		t.Errorf("List() len after ClearAll = %d, want 0", len(m.List()))
	}
	if m.ShouldBreak(breakpointAddress(0, 1)) {
		t.Error("ShouldBreak() = true after ClearAll, want false")
	}
}
