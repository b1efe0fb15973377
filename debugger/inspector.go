package debugger

import (
	"fmt"
	"strings"
	"sync"

	wasmerrors "wasmguard/errors"
	"wasmguard/memory"
)

// CallFrame records one level of the simulated call stack.
type CallFrame struct {
	FunctionIndex      uint32
	InstructionPointer uint32
	LocalsStart        uint32
}

// DebugInfo is a point-in-time snapshot of the debuggee's execution state.
type DebugInfo struct {
	InstructionPointer uint32
	StackPointer       uint32
	Locals             []int32
	MemorySize         uint32
	CallStack          []CallFrame
}

// StateInspector holds the debugger's view of the instance's execution
// state: instruction/stack pointers, locals, the simulated call stack, the
// attached linear memory, and a small named-register scratch space.
type StateInspector struct {
	mu sync.RWMutex

	currentIP    uint32
	stackPointer uint32
	locals       []int32
	callStack    []CallFrame
	mem          *memory.LinearMemory
	registers    map[string]int32
}

// NewStateInspector returns an inspector with no memory attached and an
// empty call stack.
func NewStateInspector() *StateInspector {
	return &StateInspector{registers: make(map[string]int32)}
}

// AttachMemory attaches the linear memory to inspect. Passing nil detaches it.
func (s *StateInspector) AttachMemory(mem *memory.LinearMemory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem = mem
}

// UpdateState records the current instruction pointer, stack pointer, and
// local variable values.
func (s *StateInspector) UpdateState(ip, sp uint32, locals []int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentIP = ip
	s.stackPointer = sp
	s.locals = locals
}

// PushCallFrame records entry into a function.
func (s *StateInspector) PushCallFrame(functionIndex, ip, localsStart uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callStack = append(s.callStack, CallFrame{
		FunctionIndex:      functionIndex,
		InstructionPointer: ip,
		LocalsStart:        localsStart,
	})
}

// PopCallFrame records return from the innermost function, returning the
// popped frame if the stack was non-empty.
func (s *StateInspector) PopCallFrame() (CallFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.callStack) == 0 {
		return CallFrame{}, false
	}
	frame := s.callStack[len(s.callStack)-1]
	s.callStack = s.callStack[:len(s.callStack)-1]
	return frame, true
}

// GetCurrentState snapshots the inspector's current view.
func (s *StateInspector) GetCurrentState() DebugInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var memSize uint32
	if s.mem != nil {
		memSize = s.mem.Size()
	}

	locals := make([]int32, len(s.locals))
	copy(locals, s.locals)
	callStack := make([]CallFrame, len(s.callStack))
	copy(callStack, s.callStack)

	return DebugInfo{
		InstructionPointer: s.currentIP,
		StackPointer:       s.stackPointer,
		Locals:             locals,
		MemorySize:         memSize,
		CallStack:          callStack,
	}
}

// GetCallStack returns a copy of the current call stack.
func (s *StateInspector) GetCallStack() []CallFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CallFrame, len(s.callStack))
	copy(out, s.callStack)
	return out
}

// GetCallDepth returns the number of active call frames.
func (s *StateInspector) GetCallDepth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.callStack)
}

// ReadMemory returns a copy of length bytes from the attached memory.
func (s *StateInspector) ReadMemory(address, length uint32) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mem == nil {
		return nil, wasmerrors.ErrNoMemoryAttached
	}
	return s.mem.ReadBytes(address, length)
}

// ReadMemoryU32 reads a little-endian uint32 from the attached memory.
func (s *StateInspector) ReadMemoryU32(address uint32) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mem == nil {
		return 0, wasmerrors.ErrNoMemoryAttached
	}
	return s.mem.ReadU32(address)
}

// MemoryAnnotation marks a notable address within a MemoryView (e.g. the
// stack pointer, a frame's locals base).
type MemoryAnnotation struct {
	Address     uint32
	Label       string
	Description string
}

// MemoryView is a byte-range snapshot annotated with the addresses of
// interest that fall within it.
type MemoryView struct {
	StartAddress uint32
	Data         []byte
	Annotations  []MemoryAnnotation
}

// GetMemoryView returns the [start, end) byte range annotated with any
// stack-pointer or frame-locals markers that fall within it.
func (s *StateInspector) GetMemoryView(start, end uint32) (MemoryView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mem == nil {
		return MemoryView{}, wasmerrors.ErrNoMemoryAttached
	}
	if end < start {
		return MemoryView{}, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInternal, "get_memory_view",
			"end before start")
	}
	data, err := s.mem.ReadBytes(start, end-start)
	if err != nil {
		return MemoryView{}, err
	}
	return MemoryView{
		StartAddress: start,
		Data:         data,
		Annotations:  s.memoryAnnotations(start, end),
	}, nil
}

func (s *StateInspector) memoryAnnotations(start, end uint32) []MemoryAnnotation {
	var annotations []MemoryAnnotation

	if s.stackPointer >= start && s.stackPointer < end {
		annotations = append(annotations, MemoryAnnotation{
			Address:     s.stackPointer,
			Label:       "SP",
			Description: "Stack Pointer",
		})
	}

	for i, frame := range s.callStack {
		if frame.LocalsStart >= start && frame.LocalsStart < end {
			annotations = append(annotations, MemoryAnnotation{
				Address:     frame.LocalsStart,
				Label:       fmt.Sprintf("F%d", i),
				Description: fmt.Sprintf("Frame %d locals", i),
			})
		}
	}

	return annotations
}

// FormatHex renders the view as a hexdump, bytesPerLine bytes per row, with
// annotations appended as marker lines beneath the row they fall in.
func (v MemoryView) FormatHex(bytesPerLine int) string {
	var out strings.Builder

	for i := 0; i*bytesPerLine < len(v.Data); i++ {
		lineStart := i * bytesPerLine
		lineEnd := lineStart + bytesPerLine
		if lineEnd > len(v.Data) {
			lineEnd = len(v.Data)
		}
		chunk := v.Data[lineStart:lineEnd]
		addr := v.StartAddress + uint32(lineStart)

		fmt.Fprintf(&out, "%08x: ", addr)
		for j, b := range chunk {
			fmt.Fprintf(&out, "%02x ", b)
			if j == bytesPerLine/2-1 {
				out.WriteByte(' ')
			}
		}
		for pad := len(chunk); pad < bytesPerLine; pad++ {
			out.WriteString("   ")
		}
		out.WriteString(" |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				out.WriteByte(b)
			} else {
				out.WriteByte('.')
			}
		}
		out.WriteString("|\n")

		lineAddrStart := v.StartAddress + uint32(lineStart)
		lineAddrEnd := lineAddrStart + uint32(bytesPerLine)
		for _, ann := range v.Annotations {
			if ann.Address >= lineAddrStart && ann.Address < lineAddrEnd {
				offset := ann.Address - lineAddrStart
				fmt.Fprintf(&out, "         %s%s %s\n",
					strings.Repeat(" ", int(offset)*3),
					strings.Repeat("^", len(ann.Label)),
					ann.Description)
			}
		}
	}

	return out.String()
}

// StackFrame is one entry in a StackTrace: a CallFrame enriched with its
// position in the trace and a synthesized function name.
type StackFrame struct {
	Index              int
	FunctionIndex      uint32
	InstructionPointer uint32
	LocalsStart        uint32
	FunctionName       string
}

// StackTrace is the full simulated call stack, innermost frame last.
type StackTrace struct {
	Frames     []StackFrame
	TotalDepth int
}

// GetStackTrace renders the current call stack as a StackTrace.
func (s *StateInspector) GetStackTrace() StackTrace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trace := StackTrace{TotalDepth: len(s.callStack)}
	for i, frame := range s.callStack {
		trace.Frames = append(trace.Frames, StackFrame{
			Index:              i,
			FunctionIndex:      frame.FunctionIndex,
			InstructionPointer: frame.InstructionPointer,
			LocalsStart:        frame.LocalsStart,
			FunctionName:       fmt.Sprintf("func_%d", frame.FunctionIndex),
		})
	}
	return trace
}

// VariableValue is a tagged local-variable value. Only I32 is ever produced
// today (locals are tracked as int32), but the type anticipates the
// decoder's other three value types.
type VariableValue struct {
	Kind string // "i32", "i64", "f32", "f64"
	I32  int32
	I64  int64
	F32  float32
	F64  float64
}

// LocalVariable names and types one slot in a frame's local variable array.
type LocalVariable struct {
	Index    int
	Name     string
	Value    VariableValue
	TypeName string
}

// InspectLocals checks that frameIndex names a frame on the call stack (or,
// if nil, that the stack is non-empty) and returns the inspector's current
// locals list. Locals are not tracked per frame, so every valid frame index
// yields the same list. Variable names are synthesized (local_N) since the
// decoder does not carry a debug name section.
func (s *StateInspector) InspectLocals(frameIndex *int) ([]LocalVariable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var frame *CallFrame
	if frameIndex != nil {
		if *frameIndex < 0 || *frameIndex >= len(s.callStack) {
			return nil, wasmerrors.ErrInvalidFrameIndex
		}
		frame = &s.callStack[*frameIndex]
	} else if len(s.callStack) > 0 {
		frame = &s.callStack[len(s.callStack)-1]
	}
	if frame == nil {
		return nil, wasmerrors.ErrInvalidFrameIndex
	}

	variables := make([]LocalVariable, 0, len(s.locals))
	for i, v := range s.locals {
		variables = append(variables, LocalVariable{
			Index:    i,
			Name:     fmt.Sprintf("local_%d", i),
			Value:    VariableValue{Kind: "i32", I32: v},
			TypeName: "i32",
		})
	}
	return variables, nil
}

// SetRegister stores a named scratch register value.
func (s *StateInspector) SetRegister(name string, value int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers[name] = value
}

// GetRegister reads a named scratch register value.
func (s *StateInspector) GetRegister(name string) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.registers[name]
	return v, ok
}

// Register is one named scratch value, for listing.
type Register struct {
	Name  string
	Value int32
}

// ListRegisters returns every named register, in no particular order.
func (s *StateInspector) ListRegisters() []Register {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Register, 0, len(s.registers))
	for name, value := range s.registers {
		out = append(out, Register{Name: name, Value: value})
	}
	return out
}
