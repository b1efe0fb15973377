package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wasmguard/instance"
)

var runCmd = &cobra.Command{
	Use:   "run <instance-id>",
	Short: "Create and start an instance",
	Long:  `Create and start an instance in a single operation.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

var runManifest string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runManifest, "manifest", "m", "manifest.json", "path to the instance manifest file")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := args[0]

	inst, err := instance.Create(ctx, id, runManifest, GetStateRoot())
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}

	if err := instance.Start(ctx, inst); err != nil {
		return fmt.Errorf("start instance: %w", err)
	}

	return nil
}
