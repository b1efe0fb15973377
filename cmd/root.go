// Package cmd implements the wasmguard CLI commands.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wasmguard/logging"
)

// Version information set at build time.
var (
	Version     = "0.1.0"
	ManifestVer = "1.0"
	BuildTime   = "unknown"
)

// Global flags.
var (
	globalRoot      string
	globalLog       string
	globalLogFormat string
	globalDebug     bool
)

// rootCmd is the base command for wasmguard.
var rootCmd = &cobra.Command{
	Use:   "wasmguard",
	Short: "Sandboxed execution engine for portable bytecode modules",
	Long: `wasmguard decodes, analyzes, and runs sandboxed bytecode modules under a
capability policy, with a live debugger for stepping through execution and
inspecting memory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns a context that cancels on SIGINT/SIGTERM.
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

// GetStateRoot returns the state root directory.
func GetStateRoot() string {
	if globalRoot != "" {
		return globalRoot
	}
	return "/run/wasmguard"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalRoot, "root", "", "root directory for storage of instance state (default: /run/wasmguard)")
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
}

func setupLogging() {
	logOutput := os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	logLevel := slog.LevelInfo
	if globalDebug {
		logLevel = slog.LevelDebug
	}

	if globalLogFormat == "json" || globalLog != "" || globalDebug {
		logger := logging.NewLogger(logging.Config{
			Level:  logLevel,
			Format: globalLogFormat,
			Output: logOutput,
		})
		logging.SetDefault(logger)
	}
}
