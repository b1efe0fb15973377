package instance

import (
	"context"
	"os"
	"path/filepath"
	"time"

	wasmerrors "wasmguard/errors"
	"wasmguard/hooks"
	"wasmguard/spec"
)

// Create decodes and analyzes the module named by manifestPath, wires a
// sandbox for it from the named policy, and persists its state under
// stateRoot/id with status "created". Decoding, analysis, and wiring happen
// before anything is written to disk; if the preCreate hook or the atomic
// state save fails afterwards, the state directory is removed again. A
// postCreate hook failure leaves the saved state in place.
func Create(ctx context.Context, id, manifestPath, stateRoot string) (*Instance, error) {
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
	if _, err := os.Stat(stateDir); err == nil {
		return nil, wasmerrors.WrapWithModule(nil, wasmerrors.ErrInstanceAlreadyExists.Kind, "create", id)
	}

	manifest, err := spec.LoadManifest(manifestPath)
	if err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrInternal, "load manifest", id)
	}

	inst, err := buildInstance(id, stateDir, manifest)
	if err != nil {
		return nil, err
	}

	inst.State = &spec.InstanceState{
		State: spec.State{
			Version:     spec.Version,
			ID:          id,
			Status:      spec.StatusCreating,
			ModulePath:  manifest.ModulePath,
			Annotations: manifest.Annotations,
		},
		Created:    time.Now(),
		PolicyName: manifest.PolicyName,
		ModuleHash: inst.Analysis.ModuleHash,
		RiskLevel:  inst.Analysis.RiskScore.Overall.String(),
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrIo, "create state dir", id)
	}
	if err := manifest.Save(filepath.Join(stateDir, "manifest.json")); err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrIo, "save manifest", id)
	}

	if err := inst.Hooks.Run(ctx, hooks.PreCreate, inst.State); err != nil {
		os.RemoveAll(stateDir)
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrRuntime, "preCreate hook", id)
	}

	inst.State.Status = spec.StatusCreated
	if err := inst.SaveState(); err != nil {
		os.RemoveAll(stateDir)
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrIo, "save state", id)
	}

	if err := inst.Hooks.Run(ctx, hooks.PostCreate, inst.State); err != nil {
		return nil, wasmerrors.WrapWithModule(err, wasmerrors.ErrRuntime, "postCreate hook", id)
	}

	return inst, nil
}
