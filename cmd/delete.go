package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wasmguard/instance"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <instance-id>",
	Aliases: []string{"rm"},
	Short:   "Delete an instance",
	Long:    `Delete any resources held by the instance.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var deleteForce bool

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "force delete the instance if it is still running")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := args[0]

	inst, err := instance.Load(ctx, id, GetStateRoot())
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}

	return instance.Delete(ctx, inst, deleteForce)
}
