// Package debugger implements live inspection of a running module instance:
// breakpoints, single-step execution, call-frame/memory inspection, and
// execution tracing, composed behind a debug session.
package debugger

import "sync"

// Breakpoint is a single armed stop point, addressed by function index and
// instruction offset within that function's body.
type Breakpoint struct {
	ID                uint32
	FunctionIndex     uint32
	InstructionOffset uint32
	Enabled           bool
	HitCount          uint32
}

// breakpointAddress packs a function index and instruction offset into one
// key. It is a simplification: a real implementation would resolve through
// the function table rather than assuming offsets are globally comparable.
func breakpointAddress(functionIndex, instructionOffset uint32) uint32 {
	return (functionIndex << 16) | instructionOffset
}

// BreakpointManager tracks the set of armed breakpoints, indexed both by id
// (for enable/disable/clear) and by packed address (for the O(1)
// should-break check on the hot execution path).
type BreakpointManager struct {
	mu          sync.Mutex
	breakpoints map[uint32]*Breakpoint
	addressToID map[uint32]uint32
	nextID      uint32
}

// NewBreakpointManager returns an empty manager.
func NewBreakpointManager() *BreakpointManager {
	return &BreakpointManager{
		breakpoints: make(map[uint32]*Breakpoint),
		addressToID: make(map[uint32]uint32),
		nextID:      1,
	}
}

// Set arms a new breakpoint and returns its id.
func (m *BreakpointManager) Set(functionIndex, instructionOffset uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	addr := breakpointAddress(functionIndex, instructionOffset)
	m.breakpoints[id] = &Breakpoint{
		ID:                id,
		FunctionIndex:     functionIndex,
		InstructionOffset: instructionOffset,
		Enabled:           true,
	}
	m.addressToID[addr] = id
	return id
}

// Clear removes a breakpoint by id, reporting whether it existed.
func (m *BreakpointManager) Clear(id uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	bp, ok := m.breakpoints[id]
	if !ok {
		return false
	}
	delete(m.breakpoints, id)
	delete(m.addressToID, breakpointAddress(bp.FunctionIndex, bp.InstructionOffset))
	return true
}

// Enable re-arms a breakpoint by id.
func (m *BreakpointManager) Enable(id uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	bp, ok := m.breakpoints[id]
	if !ok {
		return false
	}
	bp.Enabled = true
	return true
}

// Disable arms a breakpoint off without removing it.
func (m *BreakpointManager) Disable(id uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	bp, ok := m.breakpoints[id]
	if !ok {
		return false
	}
	bp.Enabled = false
	return true
}

// List returns a snapshot of every armed breakpoint, in no particular order.
func (m *BreakpointManager) List() []Breakpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Breakpoint, 0, len(m.breakpoints))
	for _, bp := range m.breakpoints {
		out = append(out, *bp)
	}
	return out
}

// ShouldBreak reports whether address hits an enabled breakpoint, and if so
// increments its hit count.
func (m *BreakpointManager) ShouldBreak(address uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.addressToID[address]
	if !ok {
		return false
	}
	bp := m.breakpoints[id]
	if !bp.Enabled {
		return false
	}
	bp.HitCount++
	return true
}

// GetHitCount returns how many times a breakpoint has fired.
func (m *BreakpointManager) GetHitCount(id uint32) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bp, ok := m.breakpoints[id]
	if !ok {
		return 0, false
	}
	return bp.HitCount, true
}

// ClearAll removes every breakpoint.
func (m *BreakpointManager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakpoints = make(map[uint32]*Breakpoint)
	m.addressToID = make(map[uint32]uint32)
}
