package abi

import (
	"fmt"

	"wasmguard/memory"
	"wasmguard/sandbox"

	wasmerrors "wasmguard/errors"
)

// Binding resolves named host functions against a sandbox, a linear memory,
// and a HostInterface. It is the sole bridge between module-issued calls
// and the enforcement layer: every call passes through a capability check
// before HostInterface ever sees it.
type Binding struct {
	Sandbox *sandbox.Sandbox
	Memory  *memory.LinearMemory
	Host    *HostInterface
}

// NewBinding composes a binding from its three collaborators.
func NewBinding(sb *sandbox.Sandbox, mem *memory.LinearMemory, host *HostInterface) *Binding {
	return &Binding{Sandbox: sb, Memory: mem, Host: host}
}

// argMismatch builds the uniform ErrArgumentMismatch used by every entry
// point below.
func argMismatch(fn string, detail string) error {
	return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrArgumentMismatch.Kind, fn, detail)
}

func (b *Binding) readString(ptr, length uint32) (string, error) {
	bytes, err := b.Memory.ReadBytes(ptr, length)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WasmLog implements wasm_log(msg_ptr, msg_len) -> status.
func (b *Binding) WasmLog(msgPtr, msgLen uint32) (uint32, error) {
	if err := b.Sandbox.CheckCapability(sandbox.Log()); err != nil {
		return 0, err
	}
	msg, err := b.readString(msgPtr, msgLen)
	if err != nil {
		return 0, err
	}
	if err := b.Host.Log(msg); err != nil {
		return 0, err
	}
	return 0, nil
}

// WasmReadSensor implements wasm_read_sensor(sensor_id) -> value.
//
// The result is truncated to an integer status the way the other ABI
// entries return status codes; callers needing the full-precision float
// should read it back via a shared memory scratch slot, which this binding
// does not allocate. It returns the truncated value directly, matching the
// ABI table's i32 result type.
func (b *Binding) WasmReadSensor(sensorID uint32) (uint32, error) {
	if err := b.Sandbox.CheckCapability(sandbox.ReadSensor(int(sensorID))); err != nil {
		return 0, err
	}
	value, err := b.Host.ReadSensor(int(sensorID))
	if err != nil {
		return 0, err
	}
	return uint32(int32(value)), nil
}

// WasmSendAlert implements wasm_send_alert(level, msg_ptr, msg_len) -> status.
func (b *Binding) WasmSendAlert(level, msgPtr, msgLen uint32) (uint32, error) {
	if err := b.Sandbox.CheckCapability(sandbox.SendAlert(int(level))); err != nil {
		return 0, err
	}
	msg, err := b.readString(msgPtr, msgLen)
	if err != nil {
		return 0, err
	}
	if err := b.Host.SendAlert(int(level), msg); err != nil {
		return 0, err
	}
	return 0, nil
}

// WasmGetTime implements wasm_get_time() -> unix_seconds.
func (b *Binding) WasmGetTime() (uint32, error) {
	if err := b.Sandbox.CheckCapability(sandbox.GetTime()); err != nil {
		return 0, err
	}
	return uint32(b.Host.GetTime()), nil
}

// WasmRandom implements wasm_random() -> pseudo_random.
func (b *Binding) WasmRandom() (uint32, error) {
	if err := b.Sandbox.CheckCapability(sandbox.Random()); err != nil {
		return 0, err
	}
	return b.Host.Random(), nil
}

// WasmMemorySize implements wasm_memory_size() -> pages. No capability is
// required.
func (b *Binding) WasmMemorySize() uint32 {
	return b.Memory.Size()
}

// memoryGrowFailure is the sentinel result wasm_memory_grow returns when the
// grow request is rejected, per the ABI table.
const memoryGrowFailure = 0xFFFFFFFF

// WasmMemoryGrow implements wasm_memory_grow(delta_pages) -> prev_pages or
// 0xFFFFFFFF.
func (b *Binding) WasmMemoryGrow(deltaPages uint32) (uint32, error) {
	if err := b.Sandbox.CheckCapability(sandbox.MemoryGrow()); err != nil {
		return 0, err
	}
	prev, err := b.Memory.Grow(deltaPages)
	if err != nil {
		b.Sandbox.UpdateMemoryUsage(b.Memory.Size())
		return memoryGrowFailure, nil
	}
	b.Sandbox.UpdateMemoryUsage(b.Memory.Size())
	return prev, nil
}

// Dispatch resolves a host function by name and calls it with raw i32
// arguments, matching each function's declared arity.
func (b *Binding) Dispatch(name string, args []uint32) (uint32, error) {
	switch name {
	case "wasm_log":
		if len(args) != 2 {
			return 0, argMismatch(name, fmt.Sprintf("want 2 args, got %d", len(args)))
		}
		return b.WasmLog(args[0], args[1])
	case "wasm_read_sensor":
		if len(args) != 1 {
			return 0, argMismatch(name, fmt.Sprintf("want 1 arg, got %d", len(args)))
		}
		return b.WasmReadSensor(args[0])
	case "wasm_send_alert":
		if len(args) != 3 {
			return 0, argMismatch(name, fmt.Sprintf("want 3 args, got %d", len(args)))
		}
		return b.WasmSendAlert(args[0], args[1], args[2])
	case "wasm_get_time":
		if len(args) != 0 {
			return 0, argMismatch(name, fmt.Sprintf("want 0 args, got %d", len(args)))
		}
		return b.WasmGetTime()
	case "wasm_random":
		if len(args) != 0 {
			return 0, argMismatch(name, fmt.Sprintf("want 0 args, got %d", len(args)))
		}
		return b.WasmRandom()
	case "wasm_memory_size":
		if len(args) != 0 {
			return 0, argMismatch(name, fmt.Sprintf("want 0 args, got %d", len(args)))
		}
		return b.WasmMemorySize(), nil
	case "wasm_memory_grow":
		if len(args) != 1 {
			return 0, argMismatch(name, fmt.Sprintf("want 1 arg, got %d", len(args)))
		}
		return b.WasmMemoryGrow(args[0])
	default:
		return 0, argMismatch(name, "unknown host function: "+name)
	}
}
