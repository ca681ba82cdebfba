package store

import (
	"context"
	"errors"

	"go-batch-generator/internal/model"
)

const Namespace = "store"

var (
	ErrNotFound = errors.New(Namespace + ": run not found")
)

// Run statuses recorded in the history database
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusDegraded  = "degraded"
	StatusFailed    = "failed"
)

// StateStore persists the summary of a finished run
type StateStore interface {
	// Save persists the summary and returns where it was written
	Save(ctx context.Context, summary model.RunSummary) (string, error)
	// LoadLatest returns the most recent summary, or nil when none exists
	LoadLatest(ctx context.Context) (*model.RunSummary, error)
}

// RunTracker is implemented by stores that also follow a run's lifecycle
type RunTracker interface {
	MarkStarted(ctx context.Context, runID string, req model.RunRequest) error
	MarkFailed(ctx context.Context, runID string, cause error) error
}

// Multi saves to every store; the first store is the primary one
type Multi []StateStore

func (m Multi) Save(ctx context.Context, summary model.RunSummary) (string, error) {
	var (
		location string
		errs     []error
	)
	for i, s := range m {
		loc, err := s.Save(ctx, summary)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if i == 0 || location == "" {
			location = loc
		}
	}
	return location, errors.Join(errs...)
}

func (m Multi) LoadLatest(ctx context.Context) (*model.RunSummary, error) {
	var errs []error
	for _, s := range m {
		rs, err := s.LoadLatest(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if rs != nil {
			return rs, nil
		}
	}
	return nil, errors.Join(errs...)
}

func (m Multi) MarkStarted(ctx context.Context, runID string, req model.RunRequest) error {
	var errs []error
	for _, s := range m {
		if t, ok := s.(RunTracker); ok {
			errs = append(errs, t.MarkStarted(ctx, runID, req))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) MarkFailed(ctx context.Context, runID string, cause error) error {
	var errs []error
	for _, s := range m {
		if t, ok := s.(RunTracker); ok {
			errs = append(errs, t.MarkFailed(ctx, runID, cause))
		}
	}
	return errors.Join(errs...)
}
