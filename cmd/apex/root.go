package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "apex",
	Short: "Demonstration CLI for the APEX pattern lookup core",
	Long: `apex loads a directory of pattern YAML documents into a local
store and runs one lookup against the resulting index.

This binary exists only to exercise internal/lookup locally; it is
not itself the subject of this module.`,
	SilenceUsage: true,
}

// Execute runs the root command, exiting non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
