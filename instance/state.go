package instance

import (
	"context"
	"encoding/json"
	"os"

	wasmerrors "wasmguard/errors"
)

// State loads id's state and prints it to stdout as indented JSON.
func State(ctx context.Context, id, stateRoot string) error {
	inst, err := Load(ctx, id, stateRoot)
	if err != nil {
		return wasmerrors.WrapWithModule(err, wasmerrors.ErrInstanceNotFound.Kind, "state", id)
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(inst.GetState())
}

// StateJSON loads id's state and returns it as a JSON string.
func StateJSON(ctx context.Context, id, stateRoot string) (string, error) {
	inst, err := Load(ctx, id, stateRoot)
	if err != nil {
		return "", wasmerrors.WrapWithModule(err, wasmerrors.ErrInstanceNotFound.Kind, "state", id)
	}
	data, err := inst.StateJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
