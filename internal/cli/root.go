// Package cli wires the command-line interface.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "8berries",
		Short: "8Berries chart-aware chat backend",
		Long:  "8Berries is a chat backend that forwards messages to an LLM and renders structured replies as charts.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Best effort; a missing .env file is fine.
			godotenv.Load()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
