package instance

import (
	"context"
	"time"

	wasmerrors "wasmguard/errors"
	"wasmguard/spec"
)

// Exec invokes one named host function through the instance's ABI binding.
// The opcode interpreter for a module's own function bodies is out of
// scope; what callers actually drive at runtime is the same set of host
// imports (log, read_sensor, send_alert, get_time, random, memory_size,
// memory_grow) that a real interpreter would dispatch to when a module
// traps into the host. Every call passes through the sandbox's capability
// and resource checks exactly as abi.Binding.Dispatch enforces them, and is
// recorded on the debugger's tracer when enabled.
func Exec(ctx context.Context, inst *Instance, hostFn string, args []uint32) (uint32, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	inst.mu.RLock()
	status := inst.State.Status
	inst.mu.RUnlock()

	if status != spec.StatusRunning {
		return 0, wasmerrors.WrapWithModule(nil, wasmerrors.ErrInstanceNotRunning.Kind, "exec", inst.ID)
	}

	start := time.Now()
	result, err := inst.Binding.Dispatch(hostFn, args)
	elapsed := time.Since(start)

	if tracer := inst.Debugger.Tracer(); inst.Debugger.Enabled() && tracer != nil {
		var resultPtr *uint32
		if err == nil {
			resultPtr = &result
		}
		tracer.TraceSyscall(hostFn, args, resultPtr, elapsed)
	}

	if err != nil {
		return 0, wasmerrors.WrapWithModule(err, wasmerrors.ErrRuntime, "exec "+hostFn, inst.ID)
	}
	return result, nil
}
