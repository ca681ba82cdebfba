package pipeline

import (
	"context"
	"errors"
	"math"
	"time"

	"go-batch-generator/internal/model"
)

// permanentError marks a producer failure that must not be retried
type permanentError struct {
	err error
}

func (e *permanentError) Error() string  { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the worker counts it as failed without further attempts
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// backoffDelay calculates the wait before the given retry attempt (attempt >= 1)
func backoffDelay(cfg model.RetryConfig, attempt int) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	mult := cfg.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}

	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// produceWithRetry invokes the producer for one item, re-trying transient failures.
// Each attempt gets a fresh item RNG.
func (w *Worker) produceWithRetry(ctx context.Context, item model.WorkItem, pool *model.ReferencePool, seed int64) (model.Artifact, int, error) {
	cfg := w.Retry
	if cfg.MaxAttempts < 1 {
		cfg = model.NoRetry
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			w.sleep(backoffDelay(cfg, attempt-1))
		}

		art, err := w.Producer.Produce(ctx, item, pool, NewItemRand(seed, item.Index))
		if err == nil {
			return art, attempt, nil
		}
		lastErr = err
		if IsPermanent(err) {
			return model.Artifact{}, attempt, err
		}

		w.Logger.Debug().
			Err(err).
			Int("index", item.Index).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Msg("producer attempt failed")
	}
	return model.Artifact{}, cfg.MaxAttempts, lastErr
}

func (w *Worker) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if w.Sleep != nil {
		w.Sleep(d)
		return
	}
	time.Sleep(d)
}
