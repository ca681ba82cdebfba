package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	_ "go-batch-generator/docs"
	"go-batch-generator/internal/api"
	"go-batch-generator/internal/api/handler"
	"go-batch-generator/internal/app"
	"go-batch-generator/internal/config"
	"go-batch-generator/internal/model"
	"go-batch-generator/internal/observability"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/pkg/router"
)

const shutdownTimeout = 30 * time.Second

// @title Batch Generator API
// @version 1.0
// @description Start document generation runs and inspect their history.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// process mode re-executes this binary with the worker sub-command
	if len(args) > 0 && args[0] == pipeline.WorkerCommand {
		return runWorker(args[1:])
	}

	flags := pflag.NewFlagSet("batchgen-api", pflag.ContinueOnError)
	configFile := flags.String("config", "", "Configuration file path")
	flags.Int("port", 8080, "HTTP listen port")
	flags.StringP("output", "o", "output", "Output root directory")
	flags.String("history-db", "batchgen.db", "SQLite history database path")
	flags.String("log-level", "info", "Log level")
	flags.String("log-format", "console", "Log format")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		return err
	}
	// the API lists and serves runs from the history database
	cfg.State.HistoryEnabled = true

	logger := observability.NewLogger(cfg.Logging).With().Str("component", "api").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	launcher, err := app.NewLauncher(cfg, *configFile, logger)
	if err != nil {
		return err
	}
	metrics := app.NewMetrics(cfg)
	coordinator := app.NewCoordinator(cfg, launcher, stores.StateStore(), logger, metrics)

	runs := &handler.RunHandler{
		History:    stores.History,
		OutputRoot: cfg.Generation.OutputRoot,
		Logger:     logger,
		Run: func(ctx context.Context, req model.RunRequest) (model.RunSummary, error) {
			if metrics != nil {
				metrics.RecordRunStarted()
			}
			summary, err := coordinator.Execute(ctx, req)
			if metrics != nil {
				metrics.RecordRunFinished(summary, err)
			}
			return summary, err
		},
	}

	r := router.New(logger)
	var metricsHandler http.Handler
	if metrics != nil {
		metricsHandler = promhttp.Handler()
	}
	api.RegisterRoutes(r, runs, cfg.Metrics.Path, metricsHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", srv.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// runs already started finish before the history database closes
	runs.Wait()
	logger.Info().Msg("batchgen-api stopped")
	return nil
}

func runWorker(args []string) error {
	flags := pflag.NewFlagSet(pipeline.WorkerCommand, pflag.ContinueOnError)
	configFile := flags.String("config", "", "Configuration file path")
	flags.String("log-level", "info", "Log level")
	flags.String("log-format", "json", "Log format")
	app.AddWorkerFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	return app.RunWorker(context.Background(), *configFile, flags, os.Stdin, os.Stdout, os.Stderr)
}
