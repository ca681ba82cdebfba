package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// set during build time using -ldflags
	version = "dev"
	commit  = "none"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "batchgen",
	Short: "Generates labelled synthetic document corpora in parallel.",
	Long: `batchgen produces a corpus of synthetic documents split into a positive
phase (documents carrying sensitive content) and a negative phase (look-alike
documents that do not). Each phase is partitioned into contiguous ranges, one
per worker, and the results of every worker are merged into a single summary.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is ./batchgen.yaml or $HOME/.config/batchgen/batchgen.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", `Log format ("console", "json")`)

	rootCmd.AddCommand(generateCmd, historyCmd, statsCmd, setupCmd, workerCmd)
}
