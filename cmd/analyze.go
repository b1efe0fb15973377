package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wasmguard/analysis"
	"wasmguard/wasmmodule"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <module-path>",
	Short: "Run the static risk analyzer against a module",
	Long:  `Decode a module and run the static risk analyzer, printing its security assessment, capability requirements, and risk score as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	mod, err := wasmmodule.Decode(data)
	if err != nil {
		return fmt.Errorf("decode module: %w", err)
	}

	result, err := analysis.NewAnalyzer().Analyze(mod)
	if err != nil {
		return fmt.Errorf("analyze module: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
