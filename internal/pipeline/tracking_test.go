package pipeline

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-batch-generator/internal/model"
)

func tallyFor(t *testing.T, total, workers int) (*phaseTally, []model.Task) {
	t.Helper()
	tasks, err := Partition(total, workers, model.PhasePositive)
	require.NoError(t, err)
	return newPhaseTally(model.PhasePositive, total, tasks, time.Now), tasks
}

func doneFor(task model.Task, completed, failed int) model.ProgressMessage {
	ws := model.NewWorkerSummary(task)
	ws.ItemsCompleted = completed
	ws.ItemsFailed = failed
	return model.DoneMsg(ws)
}

func TestPhaseTally_Balanced(t *testing.T) {
	tally, tasks := tallyFor(t, 4, 2)

	tally.record(model.ProgressMsg(tasks[0], 0, model.Artifact{Format: "pdf"}))
	tally.record(model.ErrorMsg(tasks[0], 1, errors.New("x")))
	tally.record(model.ProgressMsg(tasks[1], 2, model.Artifact{Format: "pdf"}))
	tally.record(model.ProgressMsg(tasks[1], 3, model.Artifact{Format: "eml"}))

	snap := tally.snapshot()
	assert.Equal(t, 3, snap.Completed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 4, snap.Accounted())
	assert.Equal(t, 0, snap.DoneWorkers)

	tally.record(doneFor(tasks[0], 1, 1))
	tally.record(doneFor(tasks[1], 2, 0))

	summaries, lost, err := tally.reconcile()
	require.NoError(t, err)
	assert.Empty(t, lost)
	assert.Len(t, summaries, 2)
	assert.Equal(t, 2, tally.snapshot().DoneWorkers)
}

func TestPhaseTally_MissingDoneBecomesLostWorker(t *testing.T) {
	tally, tasks := tallyFor(t, 10, 2)

	for i := 0; i < 3; i++ {
		tally.record(model.ProgressMsg(tasks[0], i, model.Artifact{Format: "docx", Category: "Note"}))
	}
	for i := 5; i < 10; i++ {
		tally.record(model.ProgressMsg(tasks[1], i, model.Artifact{}))
	}
	tally.record(doneFor(tasks[1], 5, 0))

	summaries, lost, err := tally.reconcile()
	require.NoError(t, err)
	require.Len(t, lost, 1)
	assert.Equal(t, model.LostWorker{
		Phase:     model.PhasePositive,
		WorkerID:  0,
		Start:     0,
		End:       5,
		Completed: 3,
		Failed:    0,
		Lost:      2,
		Reason:    ErrWorkerCrashed.Error(),
	}, lost[0])

	require.Len(t, summaries, 2)
	partial := summaries[0]
	assert.True(t, partial.Lost)
	assert.Equal(t, 3, partial.ItemsCompleted)
	assert.Equal(t, 3, partial.ByFormat["docx"])
	assert.False(t, partial.EndTime.IsZero())
}

func TestPhaseTally_Mismatch(t *testing.T) {
	tests := []struct {
		name   string
		feed   func(tasks []model.Task) []model.ProgressMessage
		detail string
	}{
		{
			name: "done disagrees with stream",
			feed: func(tasks []model.Task) []model.ProgressMessage {
				return []model.ProgressMessage{doneFor(tasks[0], 2, 0)}
			},
			detail: "were streamed",
		},
		{
			name: "duplicate done",
			feed: func(tasks []model.Task) []model.ProgressMessage {
				return []model.ProgressMessage{
					model.ProgressMsg(tasks[0], 0, model.Artifact{}),
					model.ProgressMsg(tasks[0], 1, model.Artifact{}),
					doneFor(tasks[0], 2, 0),
					doneFor(tasks[0], 2, 0),
				}
			},
			detail: "after done",
		},
		{
			name: "unknown worker",
			feed: func(tasks []model.Task) []model.ProgressMessage {
				return []model.ProgressMessage{{Kind: model.KindProgress, Phase: model.PhasePositive, WorkerID: 99, Index: 0}}
			},
			detail: "unknown worker",
		},
		{
			name: "index outside range",
			feed: func(tasks []model.Task) []model.ProgressMessage {
				return []model.ProgressMessage{model.ProgressMsg(tasks[0], 7, model.Artifact{})}
			},
			detail: "outside",
		},
		{
			name: "index out of order",
			feed: func(tasks []model.Task) []model.ProgressMessage {
				return []model.ProgressMessage{
					model.ProgressMsg(tasks[0], 1, model.Artifact{}),
					model.ProgressMsg(tasks[0], 0, model.Artifact{}),
				}
			},
			detail: "out of order",
		},
		{
			name: "done without summary",
			feed: func(tasks []model.Task) []model.ProgressMessage {
				return []model.ProgressMessage{{Kind: model.KindDone, Phase: model.PhasePositive, WorkerID: 0}}
			},
			detail: "without summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally, tasks := tallyFor(t, 2, 1)
			for _, msg := range tt.feed(tasks) {
				tally.record(msg)
			}

			_, _, err := tally.reconcile()
			require.ErrorIs(t, err, ErrAccountingMismatch)

			var accErr *AccountingError
			require.ErrorAs(t, err, &accErr)
			assert.Equal(t, model.PhasePositive, accErr.Phase)
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestPhaseSnapshot_Rate(t *testing.T) {
	assert.Zero(t, PhaseSnapshot{Completed: 10}.Rate())
	assert.InDelta(t, 5.0, PhaseSnapshot{Completed: 10, Elapsed: 2 * time.Second}.Rate(), 1e-9)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := LogReporter{Logger: zerolog.New(&buf)}
	task := model.Task{ID: 1, Start: 0, End: 1, Phase: model.PhaseNegative}

	r.PhaseStarted(model.PhaseNegative, 1, 1)
	r.Observe(model.ErrorMsg(task, 0, errors.New("render failed")))
	r.PhaseFinished(PhaseSnapshot{Phase: model.PhaseNegative, Failed: 1, Lost: 0})

	out := buf.String()
	assert.Contains(t, out, `"message":"phase started"`)
	assert.Contains(t, out, `"error":"render failed"`)
	assert.Contains(t, out, `"message":"phase finished"`)
}

func TestMultiReporter_FansOut(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	m := MultiReporter{a, b}

	m.PhaseStarted(model.PhasePositive, 3, 1)
	m.Observe(model.ProgressMessage{Kind: model.KindProgress})
	m.Heartbeat(PhaseSnapshot{})
	m.PhaseFinished(PhaseSnapshot{Phase: model.PhasePositive})

	for _, r := range []*recordingReporter{a, b} {
		assert.Equal(t, []model.Phase{model.PhasePositive}, r.started)
		assert.Len(t, r.observed, 1)
		assert.Equal(t, 1, r.heartbeats)
		assert.Len(t, r.finished, 1)
	}
}
