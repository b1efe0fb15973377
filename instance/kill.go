package instance

import (
	"context"

	wasmerrors "wasmguard/errors"
	"wasmguard/hooks"
	"wasmguard/spec"
)

// Kill forcibly stops a running or created instance and records the reason.
// There is no OS process to signal; this only updates persisted state and
// runs the registered lifecycle hooks, which is as far as "killing" an
// in-process sandbox extends.
func Kill(ctx context.Context, inst *Instance, reason string) error {
	inst.mu.RLock()
	status := inst.State.Status
	inst.mu.RUnlock()

	if status == spec.StatusKilled || status == spec.StatusStopped {
		return nil
	}

	if err := inst.Hooks.Run(ctx, hooks.PreKill, inst.State); err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrRuntime, "preKill hook", inst.ID)
	}

	inst.mu.Lock()
	inst.State.Status = spec.StatusKilled
	inst.State.KillReason = reason
	stateCopy := *inst.State
	path := inst.statePath()
	inst.mu.Unlock()

	if err := stateCopy.Save(path); err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrIo, "save state", inst.ID)
	}

	if err := inst.Hooks.Run(ctx, hooks.PostStop, inst.State); err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrRuntime, "postStop hook", inst.ID)
	}

	return nil
}
