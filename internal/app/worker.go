package app

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"go-batch-generator/internal/config"
	"go-batch-generator/internal/observability"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/internal/producer"
)

// AddWorkerFlags registers the worker-only flags NewLauncher passes to
// subprocess workers. Both binaries already define config, log-level and
// log-format.
func AddWorkerFlags(f *pflag.FlagSet) {
	f.Float64("rate-limit", 0, "Maximum documents per second")
	f.Int("max-attempts", 1, "Attempts per document")
}

// RunWorker is the worker sub-command of both binaries: it loads configuration
// from configFile and flags, reads one task from stdin and streams its
// messages to stdout.
func RunWorker(ctx context.Context, configFile string, flags *pflag.FlagSet, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}
	// stdout carries the message stream; logs go to stderr as JSON for the parent to relay
	logCfg := cfg.Logging
	logCfg.Format = "json"
	logger := observability.NewLoggerTo(stderr, logCfg)

	return pipeline.ServeWorker(ctx, stdin, stdout, producer.NewFactory(), WorkerTemplate(cfg, logger))
}
