// Package cmd defines and implements the CLI commands for the digestd
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digestd",
		Short: "Personal daily reading digest automation",
		Long: `digestd runs a personal reading routine: a morning article digest
with an AI summary pulled from your reading list, a noon reminder that
captures your own notes via email reply, and a morning umbrella heads-up
when the forecast turns wet.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(
		newMorningCmd(),
		newNoonCmd(),
		newPollCmd(),
		newUmbrellaCmd(),
		newValidateCmd(),
		newStatusCmd(),
		newServeCmd(),
	)
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
