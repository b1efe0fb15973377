package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wasmguard/instance"
)

var killCmd = &cobra.Command{
	Use:   "kill <instance-id> [reason...]",
	Short: "Stop a running instance",
	Long:  `Stop an instance and record the given reason in its persisted state.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKill,
}

func init() {
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := args[0]

	reason := "killed by operator"
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}

	inst, err := instance.Load(ctx, id, GetStateRoot())
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}

	return instance.Kill(ctx, inst, reason)
}
