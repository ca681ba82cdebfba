// Package app assembles a Coordinator and its stores from configuration.
// Both binaries use it, so a run started over HTTP behaves like one started
// from the command line.
package app

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"go-batch-generator/internal/config"
	"go-batch-generator/internal/observability"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/internal/producer"
	"go-batch-generator/internal/store"
)

// Stores holds the persistence backends selected by configuration
type Stores struct {
	State   *store.FileState
	History *store.DB
}

// OpenStores opens the state file and, when enabled, the run history database
func OpenStores(cfg *config.Config) (*Stores, error) {
	s := &Stores{
		State: store.NewFileState(cfg.Generation.OutputRoot, cfg.State.FileName),
	}
	if cfg.State.HistoryEnabled {
		db, err := store.Open(cfg.State.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		s.History = db
	}
	return s, nil
}

// StateStore returns every configured backend as one store
func (s *Stores) StateStore() store.StateStore {
	if s.History == nil {
		return s.State
	}
	return store.Multi{s.History, s.State}
}

func (s *Stores) Close() error {
	if s.History != nil {
		return s.History.Close()
	}
	return nil
}

// WorkerTemplate is the per-task worker configuration shared by both launch modes
func WorkerTemplate(cfg *config.Config, logger zerolog.Logger) pipeline.Worker {
	return pipeline.Worker{
		Retry:     cfg.Generation.Retry,
		RateLimit: cfg.Generation.RateLimit,
		Logger:    logger,
	}
}

// NewLauncher picks goroutine or subprocess workers. configFile is forwarded
// to subprocess workers so they load the same settings.
func NewLauncher(cfg *config.Config, configFile string, logger zerolog.Logger) (pipeline.Launcher, error) {
	switch cfg.Generation.Mode {
	case config.ModeProcess:
		args := []string{
			"--max-attempts=" + strconv.Itoa(cfg.Generation.Retry.MaxAttempts),
			"--rate-limit=" + strconv.FormatFloat(cfg.Generation.RateLimit, 'f', -1, 64),
			"--log-level=" + cfg.Logging.Level,
		}
		if configFile != "" {
			args = append(args, "--config="+configFile)
		}
		return pipeline.NewProcessLauncher(logger, args...)
	default:
		return &pipeline.InProcessLauncher{
			Factory: producer.NewFactory(),
			Worker:  WorkerTemplate(cfg, logger),
		}, nil
	}
}

// NewCoordinator wires launcher, pool builder, reporters and state into a Coordinator
func NewCoordinator(
	cfg *config.Config,
	launcher pipeline.Launcher,
	state store.StateStore,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	reporters ...pipeline.Reporter,
) *pipeline.Coordinator {
	all := pipeline.MultiReporter{pipeline.LogReporter{Logger: logger}}
	if metrics != nil {
		all = append(all, metrics.Reporter())
	}
	all = append(all, reporters...)

	return pipeline.NewCoordinator(launcher,
		pipeline.WithLogger(logger),
		pipeline.WithReporter(all),
		pipeline.WithHeartbeat(cfg.Generation.HeartbeatInterval),
		pipeline.WithChannelBuffer(cfg.Generation.ChannelBuffer),
		pipeline.WithPoolBuilder(&pipeline.PoolBuilder{Spec: cfg.Pool, Logger: logger}),
		pipeline.WithStateStore(state),
		pipeline.WithManifest(cfg.Generation.Manifest),
		pipeline.WithRunFolder(cfg.Generation.RunFolder),
	)
}

// NewMetrics registers collectors on the default registry when metrics are enabled
func NewMetrics(cfg *config.Config) *observability.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewMetrics(cfg.Metrics.Namespace, nil)
}
