package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wasmguard/instance"
)

var startCmd = &cobra.Command{
	Use:   "start <instance-id>",
	Short: "Start a created instance",
	Long:  `Start an instance that has been created with 'create'.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := args[0]

	inst, err := instance.Load(ctx, id, GetStateRoot())
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}

	if err := instance.Start(ctx, inst); err != nil {
		return fmt.Errorf("start instance: %w", err)
	}

	return nil
}
