package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "dipbot",
	Short: "An automated mean-reversion trading agent for crypto pairs",
	Long: `Dipbot trades dips against an EMA trend filter on a single pair.

It provides tools for:
  - Running the live poll loop against a swap venue
  - Replaying historical bars through the same signal engine
  - Querying the trade journal
  - A small HTTP status and admin API`,
}

var debug bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose console logging")
}

// newLogger builds the process logger. Production JSON by default, console
// encoding with --debug.
func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	log, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}
