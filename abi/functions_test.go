package abi

import (
	"testing"

	"wasmguard/memory"
	"wasmguard/sandbox"
)

func newTestBinding(t *testing.T, caps *sandbox.CapabilitySet) *Binding {
	t.Helper()
	mem, err := memory.New(1, nil)
	if err != nil {
		t.Fatalf("memory.New() error = %v", err)
	}
	sb := sandbox.New(caps, sandbox.ResourceLimits{
		MaxMemoryPages: 16, MaxSyscalls: 100, MaxInstructions: 1000, MaxCPUTime: 0,
	}, nil)
	host := NewHostInterfaceWithSeed(1)
	return NewBinding(sb, mem, host)
}

func TestBinding_WasmLog_RequiresCapability(t *testing.T) {
	b := newTestBinding(t, sandbox.NewCapabilitySet())
	if _, err := b.WasmLog(0, 0); err == nil {
		t.Error("WasmLog() should fail without the Log capability")
	}
}

func TestBinding_WasmLog_ReadsMessageFromMemory(t *testing.T) {
	b := newTestBinding(t, sandbox.BasicCapabilities())
	msg := []byte("hello")
	if err := b.Memory.WriteBytes(0, msg); err != nil {
		t.Fatalf("WriteBytes() error = %v", err)
	}

	sink := &recordingLogSink{}
	b.Host.AddLogSink(sink)

	if _, err := b.WasmLog(0, uint32(len(msg))); err != nil {
		t.Fatalf("WasmLog() error = %v", err)
	}
	if len(sink.messages) != 1 || sink.messages[0] != "hello" {
		t.Errorf("unexpected log sink messages: %v", sink.messages)
	}
}

func TestBinding_WasmReadSensor_CapabilityScopedBySensorKind(t *testing.T) {
	caps := sandbox.NewCapabilitySet()
	caps.Grant(sandbox.ReadSensor(SensorTemperature))
	b := newTestBinding(t, caps)

	if _, err := b.WasmReadSensor(SensorTemperature); err != nil {
		t.Errorf("WasmReadSensor(temperature) error = %v, want nil", err)
	}
	if _, err := b.WasmReadSensor(SensorHumidity); err == nil {
		t.Error("WasmReadSensor(humidity) should fail: only temperature was granted")
	}
}

func TestBinding_WasmMemoryGrow_ReturnsSentinelOnFailure(t *testing.T) {
	caps := sandbox.NewCapabilitySet()
	caps.Grant(sandbox.MemoryGrow())
	b := newTestBinding(t, caps)

	prev, err := b.WasmMemoryGrow(1)
	if err != nil || prev != 1 {
		t.Fatalf("WasmMemoryGrow(1) = (%d, %v), want (1, nil)", prev, err)
	}

	result, err := b.WasmMemoryGrow(memory.MaxPages)
	if err != nil {
		t.Fatalf("WasmMemoryGrow(over limit) error = %v, want nil (sentinel return)", err)
	}
	if result != memoryGrowFailure {
		t.Errorf("WasmMemoryGrow(over limit) = %d, want sentinel %d", result, memoryGrowFailure)
	}
}

func TestBinding_WasmMemorySize_NoCapabilityRequired(t *testing.T) {
	b := newTestBinding(t, sandbox.NewCapabilitySet())
	if size := b.WasmMemorySize(); size != 1 {
		t.Errorf("WasmMemorySize() = %d, want 1", size)
	}
}

func TestBinding_Dispatch_ArgMismatch(t *testing.T) {
	b := newTestBinding(t, sandbox.BasicCapabilities())
	if _, err := b.Dispatch("wasm_log", []uint32{0}); err == nil {
		t.Error("Dispatch(wasm_log, 1 arg) should fail: wants 2")
	}
}

func TestBinding_Dispatch_UnknownFunction(t *testing.T) {
	b := newTestBinding(t, sandbox.BasicCapabilities())
	if _, err := b.Dispatch("wasm_does_not_exist", nil); err == nil {
		t.Error("Dispatch() of an unknown function should fail")
	}
}

func TestBinding_Dispatch_RoutesToCorrectFunction(t *testing.T) {
	b := newTestBinding(t, sandbox.BasicCapabilities())
	result, err := b.Dispatch("wasm_get_time", nil)
	if err != nil {
		t.Fatalf("Dispatch(wasm_get_time) error = %v", err)
	}
	if result == 0 {
		t.Error("Dispatch(wasm_get_time) returned 0, want a nonzero Unix timestamp")
	}
}
