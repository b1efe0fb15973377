package cmd

import (
	"github.com/spf13/cobra"

	"wasmguard/instance"
)

var stateCmd = &cobra.Command{
	Use:   "state <instance-id>",
	Short: "Output the state of an instance",
	Long:  `Output the state of an instance as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := args[0]

	return instance.State(ctx, id, GetStateRoot())
}
