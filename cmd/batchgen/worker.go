package main

import (
	"os"

	"github.com/spf13/cobra"

	"go-batch-generator/internal/app"
	"go-batch-generator/internal/pipeline"
)

// workerCmd is the child side of process mode: one task on stdin, messages on stdout
var workerCmd = &cobra.Command{
	Use:    pipeline.WorkerCommand,
	Short:  "Run a single task (used by process mode).",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.RunWorker(cmd.Context(), cfgFile, cmd.Flags(), os.Stdin, os.Stdout, os.Stderr)
	},
}

func init() {
	app.AddWorkerFlags(workerCmd.Flags())
}
