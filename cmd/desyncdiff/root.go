// Package main provides the entry point for the desyncdiff CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for desyncdiff.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "desyncdiff",
		Short: "Forensic comparison of Factorio desync reports",
		Long: `desyncdiff analyzes a Factorio desync report and pinpoints where the
reference and desynced level captures diverge.

It compares the heuristic log, the script state dump and the tagged
level dump of both sides, decoding or tokenizing each artifact so
differences are reported with their structural location instead of raw
byte offsets.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewDat2JSONCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
