package sandbox

import (
	"sync"

	wasmerrors "wasmguard/errors"
)

const (
	violationLogCap   = 1000
	violationLogDrain = 500
)

// Sandbox composes a capability set, a resource accountant, and a syscall
// trap into the enforcement boundary for one instance. It is the only
// component the interpreter and ABI layer talk to for permission and
// accounting decisions.
type Sandbox struct {
	mu sync.RWMutex

	capabilities *CapabilitySet
	accountant   *ResourceAccountant
	trap         *SyscallTrap
	violations   []SecurityViolation
}

// New composes a sandbox from a capability set, resource limits, and a
// syscall trap. A nil trap defaults to NewDefaultSyscallTrap().
func New(caps *CapabilitySet, limits ResourceLimits, trap *SyscallTrap) *Sandbox {
	if trap == nil {
		trap = NewDefaultSyscallTrap()
	}
	return &Sandbox{
		capabilities: caps,
		accountant:   NewResourceAccountant(limits),
		trap:         trap,
	}
}

// FromPolicy builds a sandbox from a validated Policy.
func FromPolicy(p *Policy) *Sandbox {
	caps := NewCapabilitySet()
	for _, c := range p.AllowedCapabilities {
		caps.Grant(c)
	}
	trap := NewDefaultSyscallTrap()
	for _, name := range p.SyscallWhitelist {
		trap.Register(name, passthroughHandler)
	}
	for _, name := range p.SyscallBlacklist {
		trap.Deny(name)
	}
	return New(caps, p.ResourceLimits, trap)
}

func passthroughHandler(args []int64) (int64, error) { return 0, nil }

func (s *Sandbox) recordViolation(v *SecurityViolation) {
	if v == nil {
		return
	}
	s.violations = append(s.violations, *v)
	if len(s.violations) > violationLogCap {
		s.violations = append([]SecurityViolation(nil), s.violations[violationLogDrain:]...)
	}
}

// CheckCapability reports whether cap is held. On failure it records a
// CapabilityViolation and returns ErrCapabilityDenied.
func (s *Sandbox) CheckCapability(cap Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capabilities.Has(cap) {
		return nil
	}
	s.recordViolation(&SecurityViolation{Type: CapabilityViolation, Message: "Capability violation"})
	return wasmerrors.ErrCapabilityDenied
}

// CheckLimits runs the accountant's limit check. On failure it records the
// returned violation and propagates the error.
func (s *Sandbox) CheckLimits() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.accountant.Check()
	if err != nil {
		s.recordViolation(v)
		return err
	}
	return nil
}

// InterceptSyscall increments the syscall counter, checks limits, and if
// the trap allows the name, dispatches through it. A not-allowed name is
// recorded as a SyscallViolation and never reaches the trap's handler.
func (s *Sandbox) InterceptSyscall(name string, args []int64) (int64, error) {
	s.accountant.IncrementSyscall()

	if err := s.CheckLimits(); err != nil {
		return 0, err
	}

	if !s.trap.IsAllowed(name) {
		s.mu.Lock()
		s.recordViolation(&SecurityViolation{Type: SyscallViolation, Message: "syscall not allowed: " + name})
		s.mu.Unlock()
		return 0, wasmerrors.ErrSyscallNotAllowed
	}

	return s.trap.Handle(name, args)
}

// UpdateMemoryUsage records the instance's current page count.
func (s *Sandbox) UpdateMemoryUsage(pages uint32) {
	s.accountant.SetMemoryPages(pages)
}

// IncrementInstructions adds n to the instruction counter.
func (s *Sandbox) IncrementInstructions(n uint64) {
	s.accountant.AddInstructions(n)
}

// Violations returns an immutable copy of every recorded violation.
func (s *Sandbox) Violations() []SecurityViolation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SecurityViolation, len(s.violations))
	copy(out, s.violations)
	return out
}

// Capabilities returns the sandbox's capability set.
func (s *Sandbox) Capabilities() *CapabilitySet {
	return s.capabilities
}

// Accountant returns the sandbox's resource accountant.
func (s *Sandbox) Accountant() *ResourceAccountant {
	return s.accountant
}

// Trap returns the sandbox's syscall trap.
func (s *Sandbox) Trap() *SyscallTrap {
	return s.trap
}
