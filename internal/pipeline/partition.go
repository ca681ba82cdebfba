package pipeline

import (
	"strconv"

	"github.com/ygrebnov/errorc"

	"go-batch-generator/internal/model"
)

// Partition splits total items of a phase into contiguous, non-overlapping ranges.
// When total < workerCount only total single-item tasks are produced. The last
// task absorbs the division remainder so the final boundary is always total.
func Partition(total, workerCount int, phase model.Phase) ([]model.Task, error) {
	if total < 0 {
		return nil, errorc.With(ErrInvalidPartition, errorc.String("total", strconv.Itoa(total)))
	}
	if workerCount < 1 {
		return nil, errorc.With(ErrInvalidPartition, errorc.String("worker_count", strconv.Itoa(workerCount)))
	}
	if !phase.Valid() {
		return nil, errorc.With(ErrInvalidPartition, errorc.String("phase", string(phase)))
	}
	if total == 0 {
		return []model.Task{}, nil
	}

	n := workerCount
	if total < n {
		n = total
	}
	base := total / n

	tasks := make([]model.Task, 0, n)
	for i := 0; i < n; i++ {
		end := (i + 1) * base
		if i == n-1 {
			end = total
		}
		tasks = append(tasks, model.Task{
			ID:    i,
			Start: i * base,
			End:   end,
			Phase: phase,
		})
	}
	return tasks, nil
}

// TaskSeed derives the deterministic seed of a task from the run's base seed
func TaskSeed(base int64, taskID int) int64 {
	return base + int64(taskID)
}
