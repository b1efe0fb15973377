package sandbox

import (
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	wasmerrors "wasmguard/errors"
)

// Policy is an immutable named bundle of limits, capabilities, and syscall
// allow/deny lists. Construct via PolicyBuilder to guarantee Validate has
// already run.
type Policy struct {
	Name                 string         `yaml:"name" json:"name"`
	Description          string         `yaml:"description" json:"description"`
	ResourceLimits       ResourceLimits `yaml:"resource_limits" json:"resource_limits"`
	AllowedCapabilities  []Capability   `yaml:"-" json:"-"`
	SyscallWhitelist     []string       `yaml:"syscall_whitelist" json:"syscall_whitelist"`
	SyscallBlacklist     []string       `yaml:"syscall_blacklist" json:"syscall_blacklist"`
	NetworkPolicyAllowed bool           `yaml:"network_allowed" json:"network_allowed"`
	FilePolicyAllowed    bool           `yaml:"file_allowed" json:"file_allowed"`
}

// IsSyscallAllowed reports whether name is permitted: not blacklisted, and
// either the whitelist is empty or name appears in it.
func (p *Policy) IsSyscallAllowed(name string) bool {
	for _, b := range p.SyscallBlacklist {
		if b == name {
			return false
		}
	}
	if len(p.SyscallWhitelist) == 0 {
		return true
	}
	for _, w := range p.SyscallWhitelist {
		if w == name {
			return true
		}
	}
	return false
}

// Validate fails if a name appears in both the whitelist and blacklist, or
// if the memory/CPU limit is zero.
func (p *Policy) Validate() error {
	white := make(map[string]struct{}, len(p.SyscallWhitelist))
	for _, w := range p.SyscallWhitelist {
		white[w] = struct{}{}
	}
	for _, b := range p.SyscallBlacklist {
		if _, ok := white[b]; ok {
			return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrPolicyInvalid.Kind, "validate",
				"syscall \""+b+"\" is both whitelisted and blacklisted")
		}
	}
	if p.ResourceLimits.MaxMemoryPages == 0 {
		return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrPolicyInvalid.Kind, "validate", "memory limit must be nonzero")
	}
	if p.ResourceLimits.MaxCPUTime == 0 {
		return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrPolicyInvalid.Kind, "validate", "CPU time limit must be nonzero")
	}
	return nil
}

// PolicyBuilder accumulates policy fields and yields a validated Policy.
type PolicyBuilder struct {
	p Policy
}

// NewPolicyBuilder starts a builder with the given name.
func NewPolicyBuilder(name string) *PolicyBuilder {
	return &PolicyBuilder{p: Policy{Name: name}}
}

func (b *PolicyBuilder) Description(d string) *PolicyBuilder {
	b.p.Description = d
	return b
}

func (b *PolicyBuilder) Limits(l ResourceLimits) *PolicyBuilder {
	b.p.ResourceLimits = l
	return b
}

func (b *PolicyBuilder) Capabilities(caps ...Capability) *PolicyBuilder {
	b.p.AllowedCapabilities = append(b.p.AllowedCapabilities, caps...)
	return b
}

func (b *PolicyBuilder) Whitelist(names ...string) *PolicyBuilder {
	b.p.SyscallWhitelist = append(b.p.SyscallWhitelist, names...)
	return b
}

func (b *PolicyBuilder) Blacklist(names ...string) *PolicyBuilder {
	b.p.SyscallBlacklist = append(b.p.SyscallBlacklist, names...)
	return b
}

func (b *PolicyBuilder) Network(allowed bool) *PolicyBuilder {
	b.p.NetworkPolicyAllowed = allowed
	return b
}

func (b *PolicyBuilder) Filesystem(allowed bool) *PolicyBuilder {
	b.p.FilePolicyAllowed = allowed
	return b
}

// Build validates and returns the policy.
func (b *PolicyBuilder) Build() (*Policy, error) {
	p := b.p
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// StrictPolicy denies everything but the bare minimum observational
// capabilities, with tight limits and no syscalls beyond the defaults.
func StrictPolicy() *Policy {
	p, _ := NewPolicyBuilder("strict").
		Description("minimal capabilities, tight resource limits").
		Limits(ResourceLimits{
			MaxMemoryPages:  16,
			MaxCPUTime:      5 * time.Second,
			MaxSyscalls:     100,
			MaxInstructions: 1_000_000,
		}).
		Capabilities(Log(), GetTime()).
		Blacklist("open", "read", "write", "socket", "connect", "exec", "fork").
		Network(false).
		Filesystem(false).
		Build()
	return p
}

// SensorAccessPolicy extends strict with sensor reads.
func SensorAccessPolicy() *Policy {
	p, _ := NewPolicyBuilder("sensor-access").
		Description("basic capabilities plus sensor reads").
		Limits(ResourceLimits{
			MaxMemoryPages:  64,
			MaxCPUTime:      10 * time.Second,
			MaxSyscalls:     500,
			MaxInstructions: 5_000_000,
		}).
		Capabilities(Log(), GetTime(), Random(), ReadSensor(SensorAny)).
		Whitelist("wasm_log", "wasm_get_time", "wasm_random", "wasm_read_sensor").
		Network(false).
		Filesystem(false).
		Build()
	return p
}

// AlertSystemPolicy extends strict with alert dispatch.
func AlertSystemPolicy() *Policy {
	p, _ := NewPolicyBuilder("alert-system").
		Description("basic capabilities plus alert dispatch").
		Limits(ResourceLimits{
			MaxMemoryPages:  64,
			MaxCPUTime:      10 * time.Second,
			MaxSyscalls:     500,
			MaxInstructions: 5_000_000,
		}).
		Capabilities(Log(), GetTime(), Random(), SendAlert(AlertAny)).
		Whitelist("wasm_log", "wasm_get_time", "wasm_random", "wasm_send_alert").
		Network(false).
		Filesystem(false).
		Build()
	return p
}

// DevelopmentPolicy is loose: generous limits, every host capability
// granted, no syscall lists restricting beyond the trap's own defaults.
func DevelopmentPolicy() *Policy {
	p, _ := NewPolicyBuilder("development").
		Description("generous limits for local iteration; still no network/filesystem").
		Limits(ResourceLimits{
			MaxMemoryPages:  256,
			MaxCPUTime:      30 * time.Second,
			MaxSyscalls:     10_000,
			MaxInstructions: 50_000_000,
		}).
		Capabilities(Log(), GetTime(), Random(), MemoryGrow(), ReadSensor(SensorAny), SendAlert(AlertAny)).
		Network(false).
		Filesystem(false).
		Build()
	return p
}

// PolicyManager stores policies keyed by lowercase name, with a configurable
// default.
type PolicyManager struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	def      string
}

// NewPolicyManager returns a manager pre-populated with the four built-in
// presets, defaulting to "strict".
func NewPolicyManager() *PolicyManager {
	m := &PolicyManager{policies: make(map[string]*Policy)}
	for _, p := range []*Policy{StrictPolicy(), SensorAccessPolicy(), AlertSystemPolicy(), DevelopmentPolicy()} {
		m.Register(p)
	}
	m.def = "strict"
	return m
}

// Register stores p under its lowercased name.
func (m *PolicyManager) Register(p *Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[strings.ToLower(p.Name)] = p
}

// Get returns the policy registered under name (case-insensitive).
func (m *PolicyManager) Get(name string) (*Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[strings.ToLower(name)]
	if !ok {
		return nil, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrPolicyNotFound.Kind, "get", "policy not found: "+name)
	}
	return p, nil
}

// Default returns the manager's default policy.
func (m *PolicyManager) Default() (*Policy, error) {
	m.mu.RLock()
	name := m.def
	m.mu.RUnlock()
	return m.Get(name)
}

// SetDefault changes the default policy name; it must already be registered.
func (m *PolicyManager) SetDefault(name string) error {
	if _, err := m.Get(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.def = strings.ToLower(name)
	return nil
}

// Names returns every registered policy name, sorted.
func (m *PolicyManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.policies))
	for n := range m.policies {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LoadFile reads a YAML-encoded policy bundle from disk, validates it, and
// registers it.
func (m *PolicyManager) LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "load policy file")
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, wasmerrors.Wrap(err, wasmerrors.ErrPolicyInvalid.Kind, "parse policy file")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m.Register(&p)
	return &p, nil
}

// SaveFile writes p as YAML to path.
func (m *PolicyManager) SaveFile(p *Policy, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return wasmerrors.Wrap(err, wasmerrors.ErrInternal, "marshal policy")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wasmerrors.Wrap(err, wasmerrors.ErrIo, "save policy file")
	}
	return nil
}
