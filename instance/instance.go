// Package instance ties the decoder, analyzer, sandbox, ABI, and debugger
// together into one addressable, persisted lifecycle object: the engine's
// analog of an OCI container, minus everything that assumes a real OS
// process (PIDs, rootfs, namespaces). An Instance owns exactly one decoded
// Module, one LinearMemory, one Sandbox, and optionally one Debugger; it
// never shares mutable state with another Instance.
package instance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"wasmguard/abi"
	"wasmguard/analysis"
	"wasmguard/debugger"
	wasmerrors "wasmguard/errors"
	"wasmguard/hooks"
	"wasmguard/logging"
	"wasmguard/memory"
	"wasmguard/sandbox"
	"wasmguard/spec"
	"wasmguard/wasmmodule"
)

// instanceIDRegex restricts ids to alphanumerics with dashes, underscores,
// and dots, with no path separators, since the id names a state directory.
var instanceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidateInstanceID checks that an id is safe to use as a state-directory
// component.
func ValidateInstanceID(id string) error {
	if id == "" {
		return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInvalidInstanceID.Kind, "validate", "instance id cannot be empty")
	}
	if len(id) > 256 {
		return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInvalidInstanceID.Kind, "validate", "instance id too long")
	}
	if !instanceIDRegex.MatchString(id) || id == "." || id == ".." || filepath.Clean(id) != id {
		return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInvalidInstanceID.Kind, "validate",
			fmt.Sprintf("instance id %q is not a safe identifier", id))
	}
	return nil
}

const (
	// DefaultStateDir is the default directory for instance state.
	DefaultStateDir = "/run/wasmguard"

	// StateFileName is the name of the persisted state file within an
	// instance's state directory.
	StateFileName = "state.json"
)

// Instance is a single sandboxed module instantiation and everything wired
// around it.
type Instance struct {
	mu sync.RWMutex

	ID       string
	StateDir string

	Manifest *spec.Manifest
	State    *spec.InstanceState

	Module   *wasmmodule.Module
	Analysis *analysis.AnalysisResult
	Memory   *memory.LinearMemory
	Sandbox  *sandbox.Sandbox
	Binding  *abi.Binding
	Debugger *debugger.Debugger
	Hooks    *hooks.Registry
}

func (i *Instance) statePath() string {
	return filepath.Join(i.StateDir, StateFileName)
}

// SaveState persists the instance's current state to disk.
func (i *Instance) SaveState() error {
	i.mu.RLock()
	stateCopy := *i.State
	path := i.statePath()
	i.mu.RUnlock()
	return stateCopy.Save(path)
}

// GetState returns a copy of the externally-visible state.
func (i *Instance) GetState() *spec.State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ext := *i.State.ToExternalState()
	if ext.Annotations != nil {
		cp := make(map[string]string, len(ext.Annotations))
		for k, v := range ext.Annotations {
			cp[k] = v
		}
		ext.Annotations = cp
	}
	return &ext
}

// StateJSON renders GetState as indented JSON.
func (i *Instance) StateJSON() ([]byte, error) {
	return json.MarshalIndent(i.GetState(), "", "  ")
}

// setStatus updates the in-memory status and persists it.
func (i *Instance) setStatus(status spec.InstanceStatus) error {
	i.mu.Lock()
	i.State.Status = status
	stateCopy := *i.State
	path := i.statePath()
	i.mu.Unlock()
	return stateCopy.Save(path)
}

// Load reads persisted state for id and reconstructs the in-memory wiring by
// re-decoding and re-analyzing the module named in the manifest. The
// sandbox's accumulated violation log and the debugger's trace buffers are
// NOT restored; only the durable lifecycle status survives a reload, and
// nothing beyond the instance's state.json and its copy of manifest.json is
// persisted.
func Load(ctx context.Context, id string, stateRoot string) (*Instance, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := ValidateInstanceID(id); err != nil {
		return nil, err
	}
	if stateRoot == "" {
		stateRoot = DefaultStateDir
	}

	stateDir := filepath.Join(stateRoot, id)
	statePath := filepath.Join(stateDir, StateFileName)
	manifestPath := filepath.Join(stateDir, "manifest.json")

	state, err := spec.LoadState(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrInstanceNotFound.Kind, "load", id)
		}
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrInternal, "load state", id)
	}

	manifest, err := spec.LoadManifest(manifestPath)
	if err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrInternal, "load manifest", id)
	}

	inst, err := buildInstance(id, stateDir, manifest)
	if err != nil {
		return nil, err
	}
	inst.State = state
	return inst, nil
}

// buildInstance decodes the module, runs analysis, and wires together the
// sandbox, memory, ABI binding, and debugger from a manifest. It does not
// touch persisted state.
func buildInstance(id, stateDir string, manifest *spec.Manifest) (*Instance, error) {
	data, err := os.ReadFile(manifest.ModulePath)
	if err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrIo, "read module", id)
	}

	mod, err := wasmmodule.Decode(data)
	if err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrInvalidModule, "decode module", id)
	}

	result, err := analysis.NewAnalyzer().Analyze(mod)
	if err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrInternal, "analyze module", id)
	}

	policies := sandbox.NewPolicyManager()
	policyName := manifest.PolicyName
	if policyName == "" {
		policyName = "strict"
	}
	policy, err := policies.Get(policyName)
	if err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrPolicyNotFound.Kind, "resolve policy", id)
	}

	sb := sandbox.FromPolicy(policy)

	var minPages uint32 = 1
	var maxPages *uint32
	if mod.Memory != nil {
		minPages = mod.Memory.Min
		maxPages = mod.Memory.Max
	}
	mem, err := memory.New(minPages, maxPages)
	if err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrInternal, "create memory", id)
	}
	sb.UpdateMemoryUsage(mem.Size())

	host := abi.NewHostInterface()
	logger := logging.WithModule(logging.Default(), id)
	host.AddLogSink(abi.NewSlogLogSink(logger))
	host.AddAlertSink(abi.NewSlogAlertSink(logger))

	binding := abi.NewBinding(sb, mem, host)
	dbg := debugger.New()
	dbg.Inspector().AttachMemory(mem)

	return &Instance{
		ID:       id,
		StateDir: stateDir,
		Manifest: manifest,
		Module:   mod,
		Analysis: &result,
		Memory:   mem,
		Sandbox:  sb,
		Binding:  binding,
		Debugger: dbg,
		Hooks:    hooks.NewRegistry(),
	}, nil
}

// List returns every instance with persisted state under stateRoot.
func List(ctx context.Context, stateRoot string) ([]*Instance, error) {
	if stateRoot == "" {
		stateRoot = DefaultStateDir
	}

	entries, err := os.ReadDir(stateRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*Instance
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if !entry.IsDir() {
			continue
		}
		inst, err := Load(ctx, entry.Name(), stateRoot)
		if err != nil {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}
