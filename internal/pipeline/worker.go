package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"go-batch-generator/internal/model"
)

// Worker executes one task: every index of its range, in increasing order
type Worker struct {
	Producer DocumentProducer
	Retry    model.RetryConfig
	// RateLimit caps producer calls per second for this worker, 0 means unlimited
	RateLimit float64
	Logger    zerolog.Logger

	Now   func() time.Time
	Sleep func(time.Duration)
}

// Run processes the task and emits progress, error and done messages through sender.
// A failing item never stops the loop. The returned error is non-nil only when
// the sender itself fails, in which case no done message reached the coordinator.
func (w *Worker) Run(ctx context.Context, task model.Task, sender ProgressSender) (model.WorkerSummary, error) {
	now := w.Now
	if now == nil {
		now = time.Now
	}

	logger := w.Logger.With().
		Str("phase", string(task.Phase)).
		Int("worker_id", task.ID).
		Logger()

	summary := model.NewWorkerSummary(task)
	summary.StartTime = now()

	var limiter *rate.Limiter
	if w.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(w.RateLimit), 1)
	}
	// cancellation is not part of the run contract
	waitCtx := context.WithoutCancel(ctx)

	logger.Debug().
		Int("start", task.Start).
		Int("end", task.End).
		Int64("seed", task.Seed).
		Msg("worker started")

	for i := task.Start; i < task.End; i++ {
		if limiter != nil {
			_ = limiter.Wait(waitCtx)
		}

		item := model.WorkItem{Index: i, Phase: task.Phase}
		art, attempts, err := w.produceWithRetry(ctx, item, task.Pool, task.Seed)
		if err != nil {
			summary.ItemsFailed++
			logger.Warn().
				Err(err).
				Int("index", i).
				Int("attempts", attempts).
				Msg("item failed")

			if serr := sender.Send(model.ErrorMsg(task, i, err)); serr != nil {
				return summary, serr
			}
			continue
		}

		summary.ItemsCompleted++
		summary.PhaseCounts.Add(task.Phase, 1)
		if art.Format != "" {
			summary.ByFormat[art.Format]++
		}
		if art.Category != "" {
			summary.ByCategory[art.Category]++
		}

		if serr := sender.Send(model.ProgressMsg(task, i, art)); serr != nil {
			return summary, serr
		}
	}

	summary.EndTime = now()

	logger.Debug().
		Int("completed", summary.ItemsCompleted).
		Int("failed", summary.ItemsFailed).
		Dur("duration", summary.Duration()).
		Msg("worker finished")

	if err := sender.Send(model.DoneMsg(summary)); err != nil {
		return summary, err
	}
	return summary, nil
}
