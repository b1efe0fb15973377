package debugger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	instructionTraceCap  = 10000
	syscallTraceCap      = 1000
	functionCallTraceCap = 1000
)

// TraceEntry records one traced instruction execution.
type TraceEntry struct {
	Timestamp          time.Time
	InstructionPointer uint32
	Opcode             byte
	Args               []uint32
	StackDepth         uint32
	ExecutionTime      time.Duration
}

// SyscallTrace records one traced host-syscall invocation.
type SyscallTrace struct {
	Timestamp time.Time
	Name      string
	Args      []uint32
	Result    *uint32
	Duration  time.Duration
}

// FunctionCall records one traced function call, with its duration filled
// in once the matching return is traced.
type FunctionCall struct {
	Timestamp     time.Time
	FunctionIndex uint32
	CallerIP      uint32
	Args          []int32
	Duration      *time.Duration
}

// Hotspot aggregates repeated hits at one (function, offset) location.
type Hotspot struct {
	FunctionIndex     uint32
	InstructionOffset uint32
	HitCount          uint64
	TotalTime         time.Duration
	AvgTime           time.Duration
}

// ExecutionTrace is the bounded, FIFO-evicted record of everything an
// ExecutionTracer has observed. The ring-buffer caps keep a long-running
// session from accumulating an unbounded trace, the same way the sandbox
// bounds its violation log.
type ExecutionTrace struct {
	Instructions  []TraceEntry
	Syscalls      []SyscallTrace
	FunctionCalls []FunctionCall
	Hotspots      []Hotspot
}

// CallNode is one function's position in a CallGraph.
type CallNode struct {
	FunctionIndex uint32
	Callers       []uint32
	Callees       []uint32
	CallCount     uint64
}

// CallGraph is the caller/callee graph reconstructed from a trace's
// recorded function calls.
type CallGraph struct {
	nodes map[uint32]*CallNode
}

// NewCallGraph returns an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{nodes: make(map[uint32]*CallNode)}
}

func (g *CallGraph) node(idx uint32) *CallNode {
	n, ok := g.nodes[idx]
	if !ok {
		n = &CallNode{FunctionIndex: idx}
		g.nodes[idx] = n
	}
	return n
}

// AddCall records one caller->callee edge.
func (g *CallGraph) AddCall(caller, callee uint32) {
	callerNode := g.node(caller)
	if !containsU32(callerNode.Callees, callee) {
		callerNode.Callees = append(callerNode.Callees, callee)
	}

	calleeNode := g.node(callee)
	if !containsU32(calleeNode.Callers, caller) {
		calleeNode.Callers = append(calleeNode.Callers, caller)
	}
	calleeNode.CallCount++
}

// GetNode looks up one function's call-graph node.
func (g *CallGraph) GetNode(functionIndex uint32) (CallNode, bool) {
	n, ok := g.nodes[functionIndex]
	if !ok {
		return CallNode{}, false
	}
	return *n, true
}

func containsU32(s []uint32, v uint32) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// PerformanceStats summarizes one trace's volume and timing.
type PerformanceStats struct {
	TotalInstructions  uint64
	TotalSyscalls      uint64
	TotalFunctionCalls uint64
	AvgInstructionTime time.Duration
	Hotspots           []Hotspot
}

// TraceFormat selects an ExecutionTracer.Export encoding.
type TraceFormat int

const (
	// TraceFormatJSON renders the trace as a JSON summary document.
	TraceFormatJSON TraceFormat = iota
	// TraceFormatCSV renders the instruction trace as CSV rows.
	TraceFormatCSV
	// TraceFormatChrome renders function calls and syscalls as a Chrome
	// DevTools trace-event document (chrome://tracing / Perfetto compatible).
	TraceFormatChrome
)

// ExecutionTracer records instruction, syscall, and function-call events
// into bounded ring buffers while active, and aggregates per-location
// hotspot statistics on Stop.
type ExecutionTracer struct {
	mu sync.Mutex

	trace           ExecutionTrace
	enabled         bool
	startTime       time.Time
	currentFunction *uint32
	callStack       []FunctionCall
	hotspots        map[uint32]*Hotspot
}

// NewExecutionTracer returns a disabled tracer with empty buffers.
func NewExecutionTracer() *ExecutionTracer {
	return &ExecutionTracer{hotspots: make(map[uint32]*Hotspot)}
}

// Start enables tracing.
func (t *ExecutionTracer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
	t.startTime = time.Now()
}

// Stop disables tracing and recomputes the sorted hotspot list.
func (t *ExecutionTracer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
	t.updateHotspots()
}

// TraceInstruction records execution of one instruction at the given
// instruction pointer and opcode.
func (t *ExecutionTracer) TraceInstruction(ip uint32, opcode byte, args []uint32, stackDepth uint32, execTime time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}

	entry := TraceEntry{
		Timestamp:          time.Now(),
		InstructionPointer: ip,
		Opcode:             opcode,
		Args:               args,
		StackDepth:         stackDepth,
		ExecutionTime:      execTime,
	}
	t.addInstructionTrace(entry)

	fn := uint32(0)
	if t.currentFunction != nil {
		fn = *t.currentFunction
	}
	t.updateHotspot(fn, ip, execTime)
}

// TraceSyscall records one host-syscall invocation and its result.
func (t *ExecutionTracer) TraceSyscall(name string, args []uint32, result *uint32, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.addSyscallTrace(SyscallTrace{
		Timestamp: time.Now(),
		Name:      name,
		Args:      args,
		Result:    result,
		Duration:  duration,
	})
}

// TraceFunctionCall records entry into functionIndex from callerIP.
func (t *ExecutionTracer) TraceFunctionCall(functionIndex, callerIP uint32, args []int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}

	call := FunctionCall{
		Timestamp:     time.Now(),
		FunctionIndex: functionIndex,
		CallerIP:      callerIP,
		Args:          args,
	}
	t.callStack = append(t.callStack, call)
	fn := functionIndex
	t.currentFunction = &fn
	t.addFunctionCallTrace(call)
}

// TraceFunctionReturn records return from the innermost traced call,
// backfilling its duration in the recorded trace.
func (t *ExecutionTracer) TraceFunctionReturn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled || len(t.callStack) == 0 {
		return
	}

	call := t.callStack[len(t.callStack)-1]
	t.callStack = t.callStack[:len(t.callStack)-1]
	elapsed := time.Since(call.Timestamp)

	for i := len(t.trace.FunctionCalls) - 1; i >= 0; i-- {
		if t.trace.FunctionCalls[i].FunctionIndex == call.FunctionIndex && t.trace.FunctionCalls[i].Duration == nil {
			t.trace.FunctionCalls[i].Duration = &elapsed
			break
		}
	}

	if len(t.callStack) > 0 {
		fn := t.callStack[len(t.callStack)-1].FunctionIndex
		t.currentFunction = &fn
	} else {
		t.currentFunction = nil
	}
}

// GetTrace returns a snapshot of the accumulated trace.
func (t *ExecutionTracer) GetTrace() ExecutionTrace {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trace
}

// GetCallGraph reconstructs the caller/callee graph from the recorded
// function-call trace.
func (t *ExecutionTracer) GetCallGraph() *CallGraph {
	t.mu.Lock()
	defer t.mu.Unlock()
	graph := NewCallGraph()
	for _, call := range t.trace.FunctionCalls {
		graph.AddCall(call.CallerIP, call.FunctionIndex)
	}
	return graph
}

// GetPerformanceStats summarizes volume and average instruction time.
func (t *ExecutionTracer) GetPerformanceStats() PerformanceStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total time.Duration
	for _, e := range t.trace.Instructions {
		total += e.ExecutionTime
	}
	var avg time.Duration
	if n := len(t.trace.Instructions); n > 0 {
		avg = total / time.Duration(n)
	}

	return PerformanceStats{
		TotalInstructions:  uint64(len(t.trace.Instructions)),
		TotalSyscalls:      uint64(len(t.trace.Syscalls)),
		TotalFunctionCalls: uint64(len(t.trace.FunctionCalls)),
		AvgInstructionTime: avg,
		Hotspots:           t.trace.Hotspots,
	}
}

// Export renders the accumulated trace in the requested wire format.
func (t *ExecutionTracer) Export(format TraceFormat) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch format {
	case TraceFormatJSON:
		return t.exportJSON()
	case TraceFormatCSV:
		return t.exportCSV(), nil
	case TraceFormatChrome:
		return t.exportChrome(), nil
	default:
		return "", fmt.Errorf("debugger: unknown trace format %d", format)
	}
}

func (t *ExecutionTracer) addInstructionTrace(e TraceEntry) {
	if len(t.trace.Instructions) >= instructionTraceCap {
		t.trace.Instructions = t.trace.Instructions[1:]
	}
	t.trace.Instructions = append(t.trace.Instructions, e)
}

func (t *ExecutionTracer) addSyscallTrace(s SyscallTrace) {
	if len(t.trace.Syscalls) >= syscallTraceCap {
		t.trace.Syscalls = t.trace.Syscalls[1:]
	}
	t.trace.Syscalls = append(t.trace.Syscalls, s)
}

func (t *ExecutionTracer) addFunctionCallTrace(c FunctionCall) {
	if len(t.trace.FunctionCalls) >= functionCallTraceCap {
		t.trace.FunctionCalls = t.trace.FunctionCalls[1:]
	}
	t.trace.FunctionCalls = append(t.trace.FunctionCalls, c)
}

func (t *ExecutionTracer) updateHotspot(functionIndex, instructionOffset uint32, duration time.Duration) {
	key := (functionIndex << 16) | instructionOffset
	h, ok := t.hotspots[key]
	if !ok {
		h = &Hotspot{FunctionIndex: functionIndex, InstructionOffset: instructionOffset}
		t.hotspots[key] = h
	}
	h.HitCount++
	h.TotalTime += duration
	h.AvgTime = h.TotalTime / time.Duration(h.HitCount)
}

func (t *ExecutionTracer) updateHotspots() {
	hotspots := make([]Hotspot, 0, len(t.hotspots))
	for _, h := range t.hotspots {
		hotspots = append(hotspots, *h)
	}
	sort.Slice(hotspots, func(i, j int) bool { return hotspots[i].HitCount > hotspots[j].HitCount })
	t.trace.Hotspots = hotspots
}

func (t *ExecutionTracer) exportJSON() (string, error) {
	type hotspotJSON struct {
		FunctionIndex     uint32 `json:"function_index"`
		InstructionOffset uint32 `json:"instruction_offset"`
		HitCount          uint64 `json:"hit_count"`
		AvgTimeNanos      int64  `json:"avg_time_ns"`
	}
	type summary struct {
		InstructionCount  int           `json:"instruction_count"`
		SyscallCount      int           `json:"syscall_count"`
		FunctionCallCount int           `json:"function_call_count"`
		Hotspots          []hotspotJSON `json:"hotspots"`
	}

	s := summary{
		InstructionCount:  len(t.trace.Instructions),
		SyscallCount:      len(t.trace.Syscalls),
		FunctionCallCount: len(t.trace.FunctionCalls),
	}
	for _, h := range t.trace.Hotspots {
		s.Hotspots = append(s.Hotspots, hotspotJSON{
			FunctionIndex:     h.FunctionIndex,
			InstructionOffset: h.InstructionOffset,
			HitCount:          h.HitCount,
			AvgTimeNanos:      h.AvgTime.Nanoseconds(),
		})
	}

	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (t *ExecutionTracer) exportCSV() string {
	var b strings.Builder
	b.WriteString("timestamp,type,function,instruction,details\n")
	for _, e := range t.trace.Instructions {
		fmt.Fprintf(&b, "%s,instruction,,0x%02x,ip=%d depth=%d\n",
			e.Timestamp.Format(time.RFC3339Nano), e.Opcode, e.InstructionPointer, e.StackDepth)
	}
	for _, s := range t.trace.Syscalls {
		fmt.Fprintf(&b, "%s,syscall,,,%s\n", s.Timestamp.Format(time.RFC3339Nano), s.Name)
	}
	for _, c := range t.trace.FunctionCalls {
		fmt.Fprintf(&b, "%s,call,%d,,caller_ip=%d\n",
			c.Timestamp.Format(time.RFC3339Nano), c.FunctionIndex, c.CallerIP)
	}
	return b.String()
}

func (t *ExecutionTracer) exportChrome() string {
	type event struct {
		Name string `json:"name"`
		Ph   string `json:"ph"`
		TS   int64  `json:"ts"`
		Dur  int64  `json:"dur"`
		PID  int    `json:"pid"`
		TID  int    `json:"tid"`
	}
	type document struct {
		TraceEvents []event `json:"traceEvents"`
	}

	var doc document
	for _, call := range t.trace.FunctionCalls {
		if call.Duration == nil {
			continue
		}
		doc.TraceEvents = append(doc.TraceEvents, event{
			Name: fmt.Sprintf("func_%d", call.FunctionIndex),
			Ph:   "X",
			TS:   call.Timestamp.UnixMicro(),
			Dur:  call.Duration.Microseconds(),
			PID:  1,
			TID:  1,
		})
	}
	for _, sc := range t.trace.Syscalls {
		doc.TraceEvents = append(doc.TraceEvents, event{
			Name: sc.Name,
			Ph:   "X",
			TS:   sc.Timestamp.UnixMicro(),
			Dur:  sc.Duration.Microseconds(),
			PID:  1,
			TID:  2,
		})
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(b)
}
