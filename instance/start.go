package instance

import (
	"context"

	wasmerrors "wasmguard/errors"
	"wasmguard/hooks"
	"wasmguard/spec"
	"wasmguard/wasmmodule"
)

// Start validates that the manifest's entry export resolves to a function
// export in the decoded module, then transitions the instance to running.
// There is no child process to exec; "running" just means the instance is
// now eligible for Exec calls.
func Start(ctx context.Context, inst *Instance) error {
	inst.mu.RLock()
	status := inst.State.Status
	inst.mu.RUnlock()

	if status != spec.StatusCreated {
		return wasmerrors.WrapWithModule(nil, wasmerrors.ErrInstanceNotRunning.Kind, "start", inst.ID)
	}

	entry := inst.Manifest.EntryExport
	if entry == "" {
		entry = "main"
	}
	if _, err := resolveFunctionExport(inst.Module, entry); err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrExportNotFound.Kind, "start", inst.ID)
	}

	if err := inst.Hooks.Run(ctx, hooks.PreStart, inst.State); err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrRuntime, "preStart hook", inst.ID)
	}

	if err := inst.setStatus(spec.StatusRunning); err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrIo, "save state", inst.ID)
	}

	if err := inst.Hooks.Run(ctx, hooks.PostStart, inst.State); err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrRuntime, "postStart hook", inst.ID)
	}

	return nil
}

// resolveFunctionExport finds a function-kind export by name.
func resolveFunctionExport(mod *wasmmodule.Module, name string) (*wasmmodule.Export, error) {
	for i := range mod.Exports {
		exp := &mod.Exports[i]
		if exp.Name == name && exp.Kind == wasmmodule.ExportFunction {
			return exp, nil
		}
	}
	return nil, wasmerrors.ErrExportNotFound
}
