package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"go-batch-generator/internal/model"
)

const Namespace = "pipeline"

var (
	ErrInvalidPartition   = errors.New(Namespace + ": invalid partition request")
	ErrInvalidRequest     = errors.New(Namespace + ": invalid run request")
	ErrAccountingMismatch = errors.New(Namespace + ": progress accounting mismatch")
	ErrWorkerCrashed      = errors.New(Namespace + ": worker exited without reporting done")
	ErrChannelClosed      = errors.New(Namespace + ": progress channel closed")
)

// AccountingError lists the inconsistencies found while reconciling a phase
type AccountingError struct {
	Phase    model.Phase
	Problems []string
}

func (e *AccountingError) Error() string {
	return fmt.Sprintf("%s: phase %s: %s", ErrAccountingMismatch, e.Phase, strings.Join(e.Problems, "; "))
}

func (e *AccountingError) Unwrap() error { return ErrAccountingMismatch }
