package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"go-batch-generator/internal/app"
	"go-batch-generator/internal/config"
	"go-batch-generator/internal/console"
	"go-batch-generator/internal/observability"
	"go-batch-generator/internal/pipeline"
)

var errDegraded = errors.New("run finished with lost workers")

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run both generation phases and print the merged summary.",
	Example: `  batchgen generate --positive 1000 --negative 1000 --workers 8
  batchgen generate --corpus cui --formats pdf,docx --seed 42 --run-folder`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.Int("positive", 0, "Number of positive documents")
	f.Int("negative", 0, "Number of negative documents")
	f.IntP("workers", "w", 4, "Number of parallel workers per phase")
	f.Int64("seed", 0, "Base random seed (drawn and recorded when unset)")
	f.String("corpus", "phi", `Corpus to generate ("phi", "cui")`)
	f.StringSlice("formats", nil, "Restrict output formats (comma separated, e.g. pdf,docx)")
	f.StringP("output", "o", "output", "Output root directory")
	f.Bool("run-folder", false, "Write into a timestamped production_run_* folder")
	f.Bool("manifest", true, "Write metadata/manifest.json and manifest.csv")
	f.String("mode", config.ModeInProcess, `Worker launch mode ("inprocess", "process")`)
	f.Int("channel-buffer", pipeline.DefaultChannelBuffer, "Progress channel capacity")
	f.Duration("heartbeat", pipeline.DefaultHeartbeat, "Interval between progress heartbeats")
	f.Float64("rate-limit", 0, "Maximum documents per second per worker (0 for unlimited)")
	f.Int("max-attempts", 1, "Attempts per document before it is counted as failed")
	f.StringSlice("seed-file", nil, "CSV, JSON or YAML files of reference actors")
	f.Bool("history", false, "Record the run in the SQLite history database")
	f.String("history-db", "batchgen.db", "SQLite history database path")
	f.Bool("no-progress", false, "Disable progress bars")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.Logging)

	stores, err := app.OpenStores(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	previous, err := stores.State.LoadLatest(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read previous generation state")
	}
	fmt.Fprintln(cmd.OutOrStdout(), console.RenderPrevious(previous))

	launcher, err := app.NewLauncher(cfg, cfgFile, logger)
	if err != nil {
		return err
	}

	var reporters []pipeline.Reporter
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
		reporters = append(reporters, console.NewBarReporter(cmd.ErrOrStderr()))
	}
	metrics := app.NewMetrics(cfg)
	coordinator := app.NewCoordinator(cfg, launcher, stores.StateStore(), logger, metrics, reporters...)

	if metrics != nil {
		metrics.RecordRunStarted()
	}
	started := time.Now()
	summary, err := coordinator.Execute(ctx, cfg.RunRequest())
	if metrics != nil {
		metrics.RecordRunFinished(summary, err)
	}
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("generation failed")
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), console.RenderSummary(summary))
	if summary.Degraded() {
		return errDegraded
	}
	return nil
}
