package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wasmguard/wasmmodule"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <module-path>",
	Short: "Decode a module and print its structure",
	Long:  `Decode a module binary and print a summary of its types, functions, memory, and exports as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	mod, err := wasmmodule.Decode(data)
	if err != nil {
		return fmt.Errorf("decode module: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(mod)
}
