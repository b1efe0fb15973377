package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wasmguard/instance"
)

var createCmd = &cobra.Command{
	Use:   "create <instance-id>",
	Short: "Create an instance",
	Long: `Create an instance from a manifest file.
The instance will be in the "created" state, waiting for 'start' to be called.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var createManifest string

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createManifest, "manifest", "m", "manifest.json", "path to the instance manifest file")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := args[0]

	if _, err := instance.Create(ctx, id, createManifest, GetStateRoot()); err != nil {
		return fmt.Errorf("create instance: %w", err)
	}

	return nil
}
