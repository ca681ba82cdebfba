package pipeline

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/store"
	"go-batch-generator/pkg/utils"
)

const (
	DefaultHeartbeat     = 2 * time.Second
	DefaultChannelBuffer = 256
)

// Coordinator drives a run: it partitions each phase, launches one worker per
// task, drains the progress channel and reconciles what every worker reported.
// It never produces items itself.
type Coordinator struct {
	launcher  Launcher
	reporter  Reporter
	logger    zerolog.Logger
	heartbeat time.Duration
	buffer    int
	pool      *PoolBuilder
	state     store.StateStore
	manifest  bool
	runFolder bool
	now       func() time.Time
	newSeed   func() int64
}

type Option func(*Coordinator)

func WithReporter(r Reporter) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.reporter = r
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithHeartbeat(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.heartbeat = d
		}
	}
}

func WithChannelBuffer(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.buffer = n
		}
	}
}

func WithPoolBuilder(b *PoolBuilder) Option {
	return func(c *Coordinator) {
		if b != nil {
			c.pool = b
		}
	}
}

func WithStateStore(s store.StateStore) Option {
	return func(c *Coordinator) { c.state = s }
}

// WithManifest writes metadata/manifest.json and manifest.csv after the run
func WithManifest(enabled bool) Option {
	return func(c *Coordinator) { c.manifest = enabled }
}

// WithRunFolder places the run's documents under production_run_YYYYMMDD_HHMMSS
func WithRunFolder(enabled bool) Option {
	return func(c *Coordinator) { c.runFolder = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSeedSource replaces the generator used when a request carries no seed
func WithSeedSource(f func() int64) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.newSeed = f
		}
	}
}

func NewCoordinator(launcher Launcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		launcher:  launcher,
		reporter:  NopReporter{},
		logger:    zerolog.Nop(),
		heartbeat: DefaultHeartbeat,
		buffer:    DefaultChannelBuffer,
		now:       time.Now,
		newSeed:   func() int64 { return rand.Int64N(1 << 31) },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		c.pool = &PoolBuilder{Spec: DefaultPoolSpec(), Logger: c.logger}
	}
	return c
}

// Execute runs both phases to completion and returns the merged summary.
// Item failures and lost workers are part of the summary; only invalid
// requests, pool preparation failures and accounting mismatches are errors.
func (c *Coordinator) Execute(ctx context.Context, req model.RunRequest) (summary model.RunSummary, err error) {
	if err := ValidateRequest(req); err != nil {
		return model.RunSummary{}, err
	}

	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.Corpus == "" {
		req.Corpus = model.CorpusPHI
	}
	seed := c.newSeed()
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		req.Seed = &seed
	}

	logger := c.logger.With().Str("run_id", req.RunID).Logger()
	started := c.now()

	tracker, _ := c.state.(store.RunTracker)
	if tracker != nil {
		if terr := tracker.MarkStarted(ctx, req.RunID, req); terr != nil {
			logger.Warn().Err(terr).Msg("failed to record run start")
		}
		defer func() {
			if err == nil {
				return
			}
			if terr := tracker.MarkFailed(ctx, req.RunID, err); terr != nil {
				logger.Warn().Err(terr).Msg("failed to record run failure")
			}
		}()
	}

	logger.Info().
		Int("positive", req.Positive).
		Int("negative", req.Negative).
		Int("total", req.Total()).
		Int("workers", req.Workers).
		Int64("seed", seed).
		Str("corpus", req.Corpus).
		Strs("formats", req.Formats).
		Msg("run started")

	outDir, err := utils.NewOutputManager(req.OutputRoot, c.runFolder).CreateRunOutputDir(started)
	if err != nil {
		return model.RunSummary{}, err
	}

	builder := *c.pool
	builder.Logger = builder.Logger.With().Str("run_id", req.RunID).Logger()
	pool, err := builder.Build(ctx, seed, req.Positive)
	if err != nil {
		return model.RunSummary{}, err
	}

	reporter := c.reporter
	var manifest *Manifest
	if c.manifest {
		manifest = NewManifest()
		reporter = MultiReporter{reporter, manifest}
	}

	var (
		summaries []model.WorkerSummary
		lost      []model.LostWorker
	)
	for _, phase := range model.Phases {
		ps, pl, err := c.runPhase(ctx, logger, reporter, req, phase, seed, pool, outDir)
		if err != nil {
			logger.Error().Err(err).Str("phase", string(phase)).Msg("phase reconciliation failed")
			return model.RunSummary{}, err
		}
		summaries = append(summaries, ps...)
		lost = append(lost, pl...)
	}

	summary = Aggregate(summaries)
	summary.RunID = req.RunID
	summary.Corpus = req.Corpus
	summary.Seed = seed
	summary.WorkerCount = req.Workers
	summary.OutputDir = outDir
	summary.Requested = model.PhaseCounts{Positive: req.Positive, Negative: req.Negative}
	summary.LostWorkers = lost
	for _, lw := range lost {
		summary.LostItems += lw.Lost
	}
	if len(summaries) == 0 {
		summary.StartTime = started
		summary.EndTime = started
	}

	if manifest != nil {
		for _, r := range manifest.Export(outDir, summary) {
			if !r.Success {
				logger.Warn().Str("path", r.Path).Str("error", r.Error).Msg("manifest export failed")
			}
		}
	}

	if c.state != nil {
		location, serr := c.state.Save(ctx, summary)
		if serr != nil {
			logger.Warn().Err(serr).Msg("failed to persist run state")
		} else {
			logger.Debug().Str("location", location).Msg("run state saved")
		}
	}

	ev := logger.Info()
	if summary.Degraded() {
		ev = logger.Warn()
	}
	ev.Int("total_generated", summary.TotalGenerated).
		Int("errors", summary.Errors).
		Int("lost_items", summary.LostItems).
		Dur("duration", summary.Duration).
		Float64("docs_per_second", summary.DocsPerSecond).
		Msg("run finished")

	return summary, nil
}

// runPhase launches the phase's workers and drains their messages until the pool has joined
func (c *Coordinator) runPhase(
	ctx context.Context,
	logger zerolog.Logger,
	reporter Reporter,
	req model.RunRequest,
	phase model.Phase,
	seed int64,
	pool *model.ReferencePool,
	outDir string,
) ([]model.WorkerSummary, []model.LostWorker, error) {
	total := req.Count(phase)
	tasks, err := Partition(total, req.Workers, phase)
	if err != nil {
		return nil, nil, err
	}
	if len(tasks) == 0 {
		logger.Debug().Str("phase", string(phase)).Msg("phase has no items")
		return nil, nil, nil
	}

	for i := range tasks {
		tasks[i].Seed = TaskSeed(seed, tasks[i].ID)
		tasks[i].Pool = pool.Clone()
		tasks[i].Corpus = req.Corpus
		tasks[i].OutputDir = outDir
		tasks[i].Formats = req.Formats
	}

	tally := newPhaseTally(phase, total, tasks, c.now)
	reporter.PhaseStarted(phase, total, len(tasks))

	ch := make(chan model.ProgressMessage, c.buffer)
	sender := ChanSender(ch)

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.launcher.Launch(ctx, task, sender); err != nil {
				logger.Error().Err(err).Str("task", task.String()).Msg("worker exited abnormally")
			}
		}()
	}

	// the joiner owns close(ch)
	go func() {
		wg.Wait()
		close(ch)
	}()

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for open := true; open; {
		select {
		case msg, ok := <-ch:
			if !ok {
				open = false
				continue
			}
			tally.record(msg)
			reporter.Observe(msg)
		case <-ticker.C:
			reporter.Heartbeat(tally.snapshot())
		}
	}

	summaries, lost, err := tally.reconcile()

	snap := tally.snapshot()
	for _, lw := range lost {
		snap.Lost += lw.Lost
		logger.Warn().
			Str("phase", string(lw.Phase)).
			Int("worker_id", lw.WorkerID).
			Int("start", lw.Start).
			Int("end", lw.End).
			Int("completed", lw.Completed).
			Int("failed", lw.Failed).
			Int("lost", lw.Lost).
			Msg("worker lost")
	}
	reporter.PhaseFinished(snap)

	return summaries, lost, err
}
