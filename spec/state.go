// Package spec provides the persisted instance-state format.
package spec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// InstanceStatus is the lifecycle status of a sandboxed instance.
type InstanceStatus string

const (
	// StatusCreating indicates the instance is being decoded and analyzed.
	StatusCreating InstanceStatus = "creating"

	// StatusCreated indicates the instance has a sandbox built but hasn't started.
	StatusCreated InstanceStatus = "created"

	// StatusRunning indicates the instance is accepting Exec calls.
	StatusRunning InstanceStatus = "running"

	// StatusStopped indicates the instance exited normally.
	StatusStopped InstanceStatus = "stopped"

	// StatusKilled indicates the instance was terminated via Kill.
	StatusKilled InstanceStatus = "killed"
)

// State is the externally-visible status of an instance, analogous to the
// OCI "state" operation's output.
type State struct {
	// Version is the manifest schema version the instance was created with.
	Version string `json:"schemaVersion"`

	// ID is the instance's unique identifier.
	ID string `json:"id"`

	// Status is the current lifecycle status.
	Status InstanceStatus `json:"status"`

	// ModulePath is the path to the instance's module binary.
	ModulePath string `json:"modulePath"`

	// Annotations are key-value pairs copied from the manifest.
	Annotations map[string]string `json:"annotations,omitempty"`
}

// InstanceState extends State with internal bookkeeping persisted to disk.
type InstanceState struct {
	State

	// Created is the time the instance was created.
	Created time.Time `json:"created"`

	// PolicyName is the sandbox.Policy the instance was built from.
	PolicyName string `json:"policyName"`

	// ModuleHash is the structural hash of the decoded module, for cache keys.
	ModuleHash uint64 `json:"moduleHash"`

	// RiskLevel is the overall risk level from the last analysis run.
	RiskLevel string `json:"riskLevel,omitempty"`

	// ExitResult carries the i32 result of EntryExport once the instance has
	// stopped; nil while running or killed.
	ExitResult *int32 `json:"exitResult,omitempty"`

	// KillReason explains a non-nil reason the instance was killed.
	KillReason string `json:"killReason,omitempty"`
}

// LoadState loads instance state from a JSON file.
func LoadState(path string) (*InstanceState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state InstanceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save writes the instance state to a JSON file atomically: temp file in the
// same directory, synced, then renamed over the target.
func (s *InstanceState) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}

// ToExternalState returns just the externally-visible state portion.
func (s *InstanceState) ToExternalState() *State {
	return &s.State
}
