package sandbox

import (
	"fmt"
	"sync"
	"time"

	wasmerrors "wasmguard/errors"
)

// SyscallHandler executes a registered syscall given its argument tuple,
// returning a result value or an error.
type SyscallHandler func(args []int64) (int64, error)

// SyscallLogEntry is one completed dispatch through the trap.
type SyscallLogEntry struct {
	Name      string
	Args      []int64
	Result    int64
	Err       error
	Timestamp time.Time
}

const (
	syscallLogCap   = 1000
	syscallLogDrain = 500
)

// SyscallTrap is a name->handler registry plus an allow-set. Handlers
// registered via Register are implicitly allowed; Deny replaces a handler
// (or installs a stub) that always rejects.
type SyscallTrap struct {
	mu       sync.Mutex
	handlers map[string]SyscallHandler
	allowed  map[string]struct{}
	log      []SyscallLogEntry
}

// NewSyscallTrap returns an empty trap with no registrations.
func NewSyscallTrap() *SyscallTrap {
	return &SyscallTrap{
		handlers: make(map[string]SyscallHandler),
		allowed:  make(map[string]struct{}),
	}
}

// NewDefaultSyscallTrap returns a trap pre-populated with the engine's
// default registrations: wasm_log/get_time/random/read_sensor/send_alert
// allowed (stub handlers the caller should overwrite via Register), and
// open/read/write/socket/connect/exec/fork explicitly denied via Deny.
// Denied names must go through Deny, not Register, or they would be
// implicitly allowed.
func NewDefaultSyscallTrap() *SyscallTrap {
	t := NewSyscallTrap()
	stub := func(args []int64) (int64, error) { return 0, nil }
	for _, name := range []string{"wasm_log", "wasm_get_time", "wasm_random", "wasm_read_sensor", "wasm_send_alert"} {
		t.Register(name, stub)
	}
	for _, name := range []string{"open", "read", "write", "socket", "connect", "exec", "fork"} {
		t.Deny(name)
	}
	return t
}

// Register installs a handler for name and implicitly allows it.
func (t *SyscallTrap) Register(name string, h SyscallHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[name] = h
	t.allowed[name] = struct{}{}
}

// Deny installs a denying stub for name, replacing any existing handler and
// removing it from the allow set.
func (t *SyscallTrap) Deny(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.allowed, name)
	t.handlers[name] = func(args []int64) (int64, error) {
		return 0, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrRuntime, "handle",
			fmt.Sprintf("syscall %q is denied", name))
	}
}

// IsAllowed reports whether name is in the allow set.
func (t *SyscallTrap) IsAllowed(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.allowed[name]
	return ok
}

// Handle resolves name's handler, invokes it, appends a log entry, and
// returns the outcome. A name with no registered handler at all returns
// ErrSyscallUnknown; a name registered via Deny returns ErrSyscallNotAllowed
// from its stub (surfaced as the handler's own error).
func (t *SyscallTrap) Handle(name string, args []int64) (int64, error) {
	t.mu.Lock()
	h, ok := t.handlers[name]
	t.mu.Unlock()

	if !ok {
		err := wasmerrors.WrapWithDetail(nil, wasmerrors.ErrRuntime, "handle",
			fmt.Sprintf("unknown syscall: %s", name))
		t.appendLog(name, args, 0, err)
		return 0, err
	}

	result, err := h(args)
	t.appendLog(name, args, result, err)
	return result, err
}

func (t *SyscallTrap) appendLog(name string, args []int64, result int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, SyscallLogEntry{
		Name:      name,
		Args:      args,
		Result:    result,
		Err:       err,
		Timestamp: time.Now(),
	})
	if len(t.log) > syscallLogCap {
		t.log = append([]SyscallLogEntry(nil), t.log[syscallLogDrain:]...)
	}
}

// Log returns a copy of the current call log.
func (t *SyscallTrap) Log() []SyscallLogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SyscallLogEntry, len(t.log))
	copy(out, t.log)
	return out
}
