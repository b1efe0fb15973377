package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"wasmguard/instance"
)

var execCmd = &cobra.Command{
	Use:   "exec <instance-id> <host-fn> [args...]",
	Short: "Invoke a host function in a running instance",
	Long: `Invoke one of the sandbox's named host functions (wasm_log, wasm_read_sensor,
wasm_send_alert, wasm_get_time, wasm_random, wasm_memory_size, wasm_memory_grow)
against a running instance, subject to its capability policy.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := args[0]
	hostFn := args[1]

	callArgs := make([]uint32, 0, len(args)-2)
	for _, raw := range args[2:] {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("parse argument %q: %w", raw, err)
		}
		callArgs = append(callArgs, uint32(v))
	}

	inst, err := instance.Load(ctx, id, GetStateRoot())
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}

	result, err := instance.Exec(ctx, inst, hostFn, callArgs)
	if err != nil {
		return fmt.Errorf("exec %s: %w", hostFn, err)
	}

	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(map[string]uint32{"result": result})
}
