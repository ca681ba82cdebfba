package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-batch-generator/internal/app"
	"go-batch-generator/internal/config"
	"go-batch-generator/internal/console"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the last generation and, with --all, the recorded run history.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		stores, err := app.OpenStores(cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		latest, err := stores.State.LoadLatest(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), console.RenderPrevious(latest))

		all, _ := cmd.Flags().GetBool("all")
		if !all {
			return nil
		}
		if stores.History == nil {
			return fmt.Errorf("run history is disabled; pass --history or set state.history_enabled")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := stores.History.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), console.RenderHistory(runs))
		return nil
	},
}

func init() {
	f := historyCmd.Flags()
	f.StringP("output", "o", "output", "Output root directory holding the state file")
	f.Bool("all", false, "List runs from the history database")
	f.Int("limit", 20, "Maximum number of runs to list")
	f.Bool("history", false, "Read the SQLite history database")
	f.String("history-db", "batchgen.db", "SQLite history database path")
}
