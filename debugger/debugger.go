package debugger

import (
	wasmerrors "wasmguard/errors"
)

// StepMode selects how far Debugger.Step advances execution.
type StepMode int

const (
	// StepInto executes exactly one instruction.
	StepInto StepMode = iota
	// StepOver executes until the call depth returns to at most its value
	// when the step began, treating a called function as one unit.
	StepOver
	// StepOut executes until the call depth drops below its value when the
	// step began, running to completion of the current frame.
	StepOut
)

// StepHook executes exactly one bytecode instruction against the live
// interpreter and reports the resulting state. done is true once the
// instance has finished executing (returned or trapped) and there is
// nothing left to step into; the interpreter's opcode dispatch loop itself
// lives outside this package; the debugger only calls into it at this one
// hook point.
type StepHook func() (info DebugInfo, done bool, err error)

// Debugger composes breakpoints, tracing, and state inspection over a
// running instance. It never executes bytecode itself; every Step/Continue
// call drives the caller-supplied StepHook and reacts to what it reports.
type Debugger struct {
	breakpoints *BreakpointManager
	tracer      *ExecutionTracer
	inspector   *StateInspector
	session     *DebugSession
	enabled     bool
}

// New returns a disabled debugger with fresh breakpoint table, tracer,
// inspector, and session.
func New() *Debugger {
	return &Debugger{
		breakpoints: NewBreakpointManager(),
		tracer:      NewExecutionTracer(),
		inspector:   NewStateInspector(),
		session:     NewDebugSession(),
	}
}

// Enable arms the debugger and starts tracing.
func (d *Debugger) Enable() {
	d.enabled = true
	d.tracer.Start()
}

// Disable disarms the debugger and stops tracing (finalizing hotspots).
func (d *Debugger) Disable() {
	d.enabled = false
	d.tracer.Stop()
}

// Enabled reports whether the debugger is currently armed.
func (d *Debugger) Enabled() bool {
	return d.enabled
}

// Breakpoints returns the underlying breakpoint manager.
func (d *Debugger) Breakpoints() *BreakpointManager { return d.breakpoints }

// Inspector returns the underlying state inspector.
func (d *Debugger) Inspector() *StateInspector { return d.inspector }

// Tracer returns the underlying execution tracer.
func (d *Debugger) Tracer() *ExecutionTracer { return d.tracer }

// Session returns the underlying debug session.
func (d *Debugger) Session() *DebugSession { return d.session }

// SetBreakpoint arms a new breakpoint and returns its id.
func (d *Debugger) SetBreakpoint(functionIndex, offset uint32) uint32 {
	return d.breakpoints.Set(functionIndex, offset)
}

// ClearBreakpoint removes a breakpoint by id.
func (d *Debugger) ClearBreakpoint(id uint32) bool {
	return d.breakpoints.Clear(id)
}

// ListBreakpoints returns every armed breakpoint.
func (d *Debugger) ListBreakpoints() []Breakpoint {
	return d.breakpoints.List()
}

// Step advances execution by one unit of mode, driving hook as needed.
func (d *Debugger) Step(mode StepMode, hook StepHook) (DebugInfo, error) {
	if !d.enabled {
		return DebugInfo{}, wasmerrors.ErrDebuggerDisabled
	}

	switch mode {
	case StepOver:
		return d.stepOver(hook)
	case StepOut:
		return d.stepOut(hook)
	default:
		info, _, err := d.stepInto(hook)
		return info, err
	}
}

func (d *Debugger) stepInto(hook StepHook) (DebugInfo, bool, error) {
	info, done, err := hook()
	if err != nil {
		return DebugInfo{}, done, err
	}
	return info, done, nil
}

func (d *Debugger) stepOver(hook StepHook) (DebugInfo, error) {
	currentDepth := d.inspector.GetCallDepth()

	for {
		info, done, err := d.stepInto(hook)
		if err != nil {
			return DebugInfo{}, err
		}
		if done || d.inspector.GetCallDepth() <= currentDepth {
			return info, nil
		}
	}
}

func (d *Debugger) stepOut(hook StepHook) (DebugInfo, error) {
	currentDepth := d.inspector.GetCallDepth()
	if currentDepth == 0 {
		return DebugInfo{}, wasmerrors.ErrStepOutAtTopLevel
	}

	for {
		info, done, err := d.stepInto(hook)
		if err != nil {
			return DebugInfo{}, err
		}
		if done || d.inspector.GetCallDepth() < currentDepth {
			return info, nil
		}
	}
}

// Continue runs hook repeatedly until an enabled breakpoint fires, the hook
// reports completion, the hook errors, or maxSteps single-steps have
// elapsed. The maxSteps bound is mandatory: a module with no breakpoints
// set, or one that never revisits a breakpointed address, would otherwise
// hang the debugger forever. Callers enforcing resource limits size it
// from their instruction budget.
func (d *Debugger) Continue(hook StepHook, maxSteps uint64) (DebugInfo, error) {
	if !d.enabled {
		return DebugInfo{}, wasmerrors.ErrDebuggerDisabled
	}

	var steps uint64
	for {
		info, done, err := d.stepInto(hook)
		if err != nil {
			return DebugInfo{}, err
		}
		if done {
			return info, nil
		}
		if d.breakpoints.ShouldBreak(info.InstructionPointer) {
			return info, nil
		}

		steps++
		if steps >= maxSteps {
			return info, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrRuntime, "continue",
				"step limit exhausted before breakpoint or completion")
		}
	}
}

// GetDebugInfo snapshots the inspector's current state.
func (d *Debugger) GetDebugInfo() DebugInfo {
	return d.inspector.GetCurrentState()
}

// InspectMemory reads length bytes at address from the attached memory.
func (d *Debugger) InspectMemory(address, length uint32) ([]byte, error) {
	return d.inspector.ReadMemory(address, length)
}

// GetCallStack returns the current simulated call stack.
func (d *Debugger) GetCallStack() []CallFrame {
	return d.inspector.GetCallStack()
}

// GetTrace returns a snapshot of the accumulated execution trace.
func (d *Debugger) GetTrace() ExecutionTrace {
	return d.tracer.GetTrace()
}
