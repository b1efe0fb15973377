package sandbox

import (
	"sync"
	"time"

	wasmerrors "wasmguard/errors"
)

// ResourceLimits bounds what one instance may consume. Check enforces
// MaxMemoryPages, MaxCPUTime, MaxSyscalls, and MaxInstructions, each only
// when it is nonzero (Policy.Validate rejects a zero memory or CPU limit);
// MaxStackDepth, MaxGlobals, and MaxTableSize are not checked by Check.
type ResourceLimits struct {
	MaxMemoryPages  uint32
	MaxCPUTime      time.Duration
	MaxSyscalls     uint64
	MaxInstructions uint64
	MaxStackDepth   uint32
	MaxGlobals      uint32
	MaxTableSize    uint32
}

// ResourceUsage is the live counter set tracked against ResourceLimits.
// InstructionCount and SyscallCount only increase; MemoryPages holds the
// current page count and can go down.
type ResourceUsage struct {
	MemoryPages      uint32
	InstructionCount uint64
	SyscallCount     uint64
	Started          time.Time
}

// ViolationType classifies a SecurityViolation.
type ViolationType int

const (
	CapabilityViolation ViolationType = iota
	ResourceLimitViolation
	SyscallViolation
)

func (t ViolationType) String() string {
	switch t {
	case CapabilityViolation:
		return "CapabilityViolation"
	case ResourceLimitViolation:
		return "ResourceLimitViolation"
	case SyscallViolation:
		return "SyscallViolation"
	default:
		return "UnknownViolation"
	}
}

// SecurityViolation is a structured record of a rejected operation.
type SecurityViolation struct {
	Type      ViolationType
	Message   string
	Timestamp time.Time
}

// ResourceAccountant holds limits, live usage, and the instance start time.
// MemoryLimiter (peak/utilization tracking) and InstructionCounter
// (total/reset-since tracking) are kept as internal fields rather than
// separate exported sub-components.
type ResourceAccountant struct {
	mu sync.Mutex

	limits  ResourceLimits
	usage   ResourceUsage
	started time.Time

	peakMemoryPages        uint32
	instructionsSinceReset uint64
	lastInstructionReset   time.Time
}

// NewResourceAccountant creates an accountant with the given limits, usage
// counters zeroed and the start timestamp set to now.
func NewResourceAccountant(limits ResourceLimits) *ResourceAccountant {
	now := time.Now()
	return &ResourceAccountant{
		limits:               limits,
		started:              now,
		lastInstructionReset: now,
		usage:                ResourceUsage{Started: now},
	}
}

// Check recomputes elapsed wall time and fails immediately when any counter
// exceeds its limit, returning the violation that would be recorded.
func (a *ResourceAccountant) Check() (*SecurityViolation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limits.MaxMemoryPages > 0 && a.usage.MemoryPages > a.limits.MaxMemoryPages {
		return a.violation(ResourceLimitViolation, "memory page limit exceeded"),
			wasmerrors.Wrap(wasmerrors.ErrLimitExceeded, wasmerrors.ErrRuntime, "check_limits")
	}
	if a.limits.MaxCPUTime > 0 && time.Since(a.started) > a.limits.MaxCPUTime {
		return a.violation(ResourceLimitViolation, "CPU time limit exceeded"),
			wasmerrors.Wrap(wasmerrors.ErrCPUTimeExceeded, wasmerrors.ErrRuntime, "check_limits")
	}
	if a.limits.MaxSyscalls > 0 && a.usage.SyscallCount > a.limits.MaxSyscalls {
		return a.violation(ResourceLimitViolation, "syscall quota exceeded"),
			wasmerrors.Wrap(wasmerrors.ErrLimitExceeded, wasmerrors.ErrRuntime, "check_limits")
	}
	if a.limits.MaxInstructions > 0 && a.usage.InstructionCount > a.limits.MaxInstructions {
		return a.violation(ResourceLimitViolation, "instruction limit exceeded"),
			wasmerrors.Wrap(wasmerrors.ErrLimitExceeded, wasmerrors.ErrRuntime, "check_limits")
	}
	return nil, nil
}

func (a *ResourceAccountant) violation(t ViolationType, msg string) *SecurityViolation {
	return &SecurityViolation{Type: t, Message: msg, Timestamp: time.Now()}
}

// AddInstructions increases the instruction counter by n.
func (a *ResourceAccountant) AddInstructions(n uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.InstructionCount += n
	a.instructionsSinceReset += n
}

// IncrementSyscall increases the syscall counter by one.
func (a *ResourceAccountant) IncrementSyscall() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.SyscallCount++
}

// SetMemoryPages records the current memory page count, updating the peak
// if it is a new high.
func (a *ResourceAccountant) SetMemoryPages(p uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.MemoryPages = p
	if p > a.peakMemoryPages {
		a.peakMemoryPages = p
	}
}

// Usage returns a copy of the current usage counters.
func (a *ResourceAccountant) Usage() ResourceUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

// PeakMemoryPages returns the highest memory page count observed so far.
func (a *ResourceAccountant) PeakMemoryPages() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peakMemoryPages
}

// Limits returns the accountant's configured limits.
func (a *ResourceAccountant) Limits() ResourceLimits {
	return a.limits
}

// ResetInstructionWindow zeroes the reset-since-time instruction counter,
// used by callers that want a periodic instructions/sec figure.
func (a *ResourceAccountant) ResetInstructionWindow() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.instructionsSinceReset = 0
	a.lastInstructionReset = time.Now()
}

// InstructionsSinceReset returns the instruction count since the last
// ResetInstructionWindow call, and the elapsed duration over that window.
func (a *ResourceAccountant) InstructionsSinceReset() (uint64, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.instructionsSinceReset, time.Since(a.lastInstructionReset)
}
