package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"wasmguard/spec"
)

var specCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Create a new manifest file",
	Long:  `Generate a default instance manifest to stdout.`,
	Args:  cobra.NoArgs,
	RunE:  runSpec,
}

var (
	specModulePath string
	specPolicy     string
	specEntry      string
)

func init() {
	rootCmd.AddCommand(specCmd)

	specCmd.Flags().StringVarP(&specModulePath, "module", "m", "module.wasm", "path to the module binary")
	specCmd.Flags().StringVarP(&specPolicy, "policy", "p", "strict", "name of the policy to enforce")
	specCmd.Flags().StringVarP(&specEntry, "entry", "e", "main", "name of the entry export")
}

func runSpec(cmd *cobra.Command, args []string) error {
	m := spec.DefaultManifest()
	m.ModulePath = specModulePath
	m.PolicyName = specPolicy
	m.EntryExport = specEntry

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(m)
}
