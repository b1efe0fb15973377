package instance

import (
	"context"
	"os"

	wasmerrors "wasmguard/errors"
	"wasmguard/spec"
)

// Delete removes an instance's on-disk state. A running instance is
// refused unless force is set.
func Delete(ctx context.Context, inst *Instance, force bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	inst.mu.RLock()
	status := inst.State.Status
	inst.mu.RUnlock()

	if status == spec.StatusRunning && !force {
		return wasmerrors.WrapWithModule(nil, wasmerrors.ErrInstanceNotRunning.Kind, "delete", inst.ID)
	}

	if status == spec.StatusRunning && force {
		if err := Kill(ctx, inst, "deleted while running"); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(inst.StateDir); err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrIo, "delete", inst.ID)
	}
	return nil
}
