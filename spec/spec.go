// Package spec defines the on-disk manifest format for a sandboxed instance.
//
// A manifest names the module binary to load, the policy bundle to enforce,
// and the export the caller intends to drive: the sandbox analog of an OCI
// bundle's config.json, minus everything that assumes a real OS process
// (rootfs, mounts, namespaces, rlimits).
package spec

import (
	"encoding/json"
	"os"

	wasmerrors "wasmguard/errors"
)

// Version is the manifest schema version this implementation targets.
const Version = "1.0"

// Manifest is the configuration for one sandboxed instance.
type Manifest struct {
	// SchemaVersion is the manifest format version.
	SchemaVersion string `json:"schemaVersion"`

	// ModulePath is the path to the module binary to decode and instantiate.
	ModulePath string `json:"modulePath"`

	// PolicyName selects a registered sandbox.Policy by name.
	PolicyName string `json:"policyName"`

	// EntryExport names the function export the instance is driven through.
	EntryExport string `json:"entryExport,omitempty"`

	// Args are the i32 arguments passed to EntryExport.
	Args []int32 `json:"args,omitempty"`

	// Hooks names in-process lifecycle hooks to run, keyed by hooks.Event.
	Hooks map[string][]string `json:"hooks,omitempty"`

	// Annotations carries arbitrary caller metadata, copied into InstanceState.
	Annotations map[string]string `json:"annotations,omitempty"`
}

// DefaultManifest returns a manifest with the strict policy and no module
// bound yet, a starting point for `manifest init`.
func DefaultManifest() *Manifest {
	return &Manifest{
		SchemaVersion: Version,
		PolicyName:    "strict",
		EntryExport:   "main",
	}
}

// LoadManifest reads and parses a manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wasmerrors.Wrap(err, wasmerrors.ErrIo, "load manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, wasmerrors.WrapWithDetail(err, wasmerrors.ErrInvalidModule, "parse manifest", "malformed manifest JSON")
	}
	if m.ModulePath == "" {
		return nil, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInvalidModule, "parse manifest", "modulePath is required")
	}
	return &m, nil
}

// Save writes m as indented JSON to path.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return wasmerrors.Wrap(err, wasmerrors.ErrInternal, "marshal manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wasmerrors.Wrap(err, wasmerrors.ErrIo, "save manifest")
	}
	return nil
}
