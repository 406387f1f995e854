// Package cmd implements the finch command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/finch0/finch/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "finch",
	Short: "Finch - grounded answer engine",
	Long: `Finch answers questions from your own documents, Google Drive, and
the web, with numbered citations back to every source it used.

Commands:
  ask      answer a single question
  index    add documents to the local index
  serve    run the HTTP API server
  version  show version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
// It is designed to be called from main() and is also testable.
func Execute() error {
	initLogger()
	return rootCmd.Execute()
}

// initLogger initializes the default structured logger.
//
// Log level is controlled by the DEBUG environment variable:
//   - DEBUG set (any value): debug level logging
//   - DEBUG not set: info level logging
//
// Logs go to stderr; stdout is reserved for command output.
func initLogger() {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	slog.SetDefault(log.New(cfg))
}
