package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"go-batch-generator/internal/model"
)

// PhaseSnapshot is a point-in-time view of a phase's progress
type PhaseSnapshot struct {
	Phase       model.Phase   `json:"phase"`
	Total       int           `json:"total"`
	Workers     int           `json:"workers"`
	Completed   int           `json:"completed"`
	Failed      int           `json:"failed"`
	DoneWorkers int           `json:"done_workers"`
	Lost        int           `json:"lost"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Accounted returns items reported as completed or failed
func (s PhaseSnapshot) Accounted() int {
	return s.Completed + s.Failed
}

// Rate returns completed items per second
func (s PhaseSnapshot) Rate() float64 {
	return docsPerSecond(s.Completed, s.Elapsed)
}

// Reporter is the presentation side of the progress stream (console, log, metrics)
type Reporter interface {
	PhaseStarted(phase model.Phase, total, workers int)
	Observe(msg model.ProgressMessage)
	Heartbeat(s PhaseSnapshot)
	PhaseFinished(s PhaseSnapshot)
}

// NopReporter discards every event
type NopReporter struct{}

func (NopReporter) PhaseStarted(model.Phase, int, int) {}
func (NopReporter) Observe(model.ProgressMessage)      {}
func (NopReporter) Heartbeat(PhaseSnapshot)            {}
func (NopReporter) PhaseFinished(PhaseSnapshot)        {}

// MultiReporter fans events out to several reporters
type MultiReporter []Reporter

func (m MultiReporter) PhaseStarted(phase model.Phase, total, workers int) {
	for _, r := range m {
		r.PhaseStarted(phase, total, workers)
	}
}

func (m MultiReporter) Observe(msg model.ProgressMessage) {
	for _, r := range m {
		r.Observe(msg)
	}
}

func (m MultiReporter) Heartbeat(s PhaseSnapshot) {
	for _, r := range m {
		r.Heartbeat(s)
	}
}

func (m MultiReporter) PhaseFinished(s PhaseSnapshot) {
	for _, r := range m {
		r.PhaseFinished(s)
	}
}

// LogReporter writes the progress stream to a zerolog logger
type LogReporter struct {
	Logger zerolog.Logger
}

func (r LogReporter) PhaseStarted(phase model.Phase, total, workers int) {
	r.Logger.Info().
		Str("phase", string(phase)).
		Int("total", total).
		Int("workers", workers).
		Msg("phase started")
}

func (r LogReporter) Observe(msg model.ProgressMessage) {
	switch msg.Kind {
	case model.KindError:
		r.Logger.Warn().
			Str("phase", string(msg.Phase)).
			Int("worker_id", msg.WorkerID).
			Int("index", msg.Index).
			Str("error", msg.Error).
			Msg("item failed")
	case model.KindDone:
		if msg.Summary == nil {
			return
		}
		r.Logger.Debug().
			Str("phase", string(msg.Phase)).
			Int("worker_id", msg.WorkerID).
			Int("completed", msg.Summary.ItemsCompleted).
			Int("failed", msg.Summary.ItemsFailed).
			Dur("duration", msg.Summary.Duration()).
			Msg("worker done")
	}
}

func (r LogReporter) Heartbeat(s PhaseSnapshot) {
	r.Logger.Debug().
		Str("phase", string(s.Phase)).
		Int("accounted", s.Accounted()).
		Int("total", s.Total).
		Int("done_workers", s.DoneWorkers).
		Int("workers", s.Workers).
		Float64("docs_per_second", s.Rate()).
		Msg("heartbeat")
}

func (r LogReporter) PhaseFinished(s PhaseSnapshot) {
	ev := r.Logger.Info()
	if s.Lost > 0 {
		ev = r.Logger.Warn()
	}
	ev.Str("phase", string(s.Phase)).
		Int("completed", s.Completed).
		Int("failed", s.Failed).
		Int("lost", s.Lost).
		Dur("elapsed", s.Elapsed).
		Msg("phase finished")
}

// phaseTally accounts for every message of one phase and reconciles it against the tasks
type phaseTally struct {
	phase    model.Phase
	total    int
	started  time.Time
	tasks    map[int]model.Task
	streamed map[int]*model.WorkerSummary
	lastIdx  map[int]int
	done     map[int]*model.WorkerSummary
	problems []string
	now      func() time.Time
}

func newPhaseTally(phase model.Phase, total int, tasks []model.Task, now func() time.Time) *phaseTally {
	t := &phaseTally{
		phase:    phase,
		total:    total,
		started:  now(),
		tasks:    make(map[int]model.Task, len(tasks)),
		streamed: make(map[int]*model.WorkerSummary, len(tasks)),
		lastIdx:  make(map[int]int, len(tasks)),
		done:     make(map[int]*model.WorkerSummary, len(tasks)),
		now:      now,
	}
	for _, task := range tasks {
		t.tasks[task.ID] = task
		ws := model.NewWorkerSummary(task)
		t.streamed[task.ID] = &ws
		t.lastIdx[task.ID] = task.Start - 1
	}
	return t
}

func (t *phaseTally) problem(format string, args ...any) {
	t.problems = append(t.problems, fmt.Sprintf(format, args...))
}

func (t *phaseTally) record(msg model.ProgressMessage) {
	task, ok := t.tasks[msg.WorkerID]
	if !ok || msg.Phase != t.phase {
		t.problem("message %s from unknown worker %s#%d", msg.Kind, msg.Phase, msg.WorkerID)
		return
	}
	if _, finished := t.done[msg.WorkerID]; finished {
		t.problem("worker %d sent %s after done", msg.WorkerID, msg.Kind)
		return
	}

	st := t.streamed[msg.WorkerID]
	switch msg.Kind {
	case model.KindProgress, model.KindError:
		if msg.Index < task.Start || msg.Index >= task.End {
			t.problem("worker %d reported index %d outside [%d,%d)", msg.WorkerID, msg.Index, task.Start, task.End)
			return
		}
		if msg.Index <= t.lastIdx[msg.WorkerID] {
			t.problem("worker %d reported index %d out of order", msg.WorkerID, msg.Index)
			return
		}
		t.lastIdx[msg.WorkerID] = msg.Index
		if st.StartTime.IsZero() {
			st.StartTime = t.now()
		}

		if msg.Kind == model.KindError {
			st.ItemsFailed++
			return
		}
		st.ItemsCompleted++
		st.PhaseCounts.Add(t.phase, 1)
		if msg.Artifact != nil {
			if msg.Artifact.Format != "" {
				st.ByFormat[msg.Artifact.Format]++
			}
			if msg.Artifact.Category != "" {
				st.ByCategory[msg.Artifact.Category]++
			}
		}
	case model.KindDone:
		if msg.Summary == nil {
			t.problem("worker %d sent done without summary", msg.WorkerID)
			return
		}
		summary := *msg.Summary
		t.done[msg.WorkerID] = &summary
	default:
		t.problem("worker %d sent unknown message kind %q", msg.WorkerID, msg.Kind)
	}
}

func (t *phaseTally) snapshot() PhaseSnapshot {
	s := PhaseSnapshot{
		Phase:       t.phase,
		Total:       t.total,
		Workers:     len(t.tasks),
		DoneWorkers: len(t.done),
		Elapsed:     t.now().Sub(t.started),
	}
	for _, st := range t.streamed {
		s.Completed += st.ItemsCompleted
		s.Failed += st.ItemsFailed
	}
	return s
}

// reconcile checks streamed counts against done summaries once the pool has joined.
// Workers without a done message become lost-worker anomalies with a partial
// summary rebuilt from their streamed messages.
func (t *phaseTally) reconcile() ([]model.WorkerSummary, []model.LostWorker, error) {
	ids := make([]int, 0, len(t.tasks))
	for id := range t.tasks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	end := t.now()
	summaries := make([]model.WorkerSummary, 0, len(ids))
	var lost []model.LostWorker
	accounted := 0

	for _, id := range ids {
		task := t.tasks[id]
		st := t.streamed[id]

		if d, ok := t.done[id]; ok {
			if d.ItemsCompleted != st.ItemsCompleted || d.ItemsFailed != st.ItemsFailed {
				t.problem("worker %d summary reports %d/%d completed/failed but %d/%d were streamed",
					id, d.ItemsCompleted, d.ItemsFailed, st.ItemsCompleted, st.ItemsFailed)
			}
			if d.Attempted() != task.Len() {
				t.problem("worker %d attempted %d items for a range of %d", id, d.Attempted(), task.Len())
			}
			accounted += d.Attempted()
			summaries = append(summaries, *d)
			continue
		}

		partial := *st
		partial.Lost = true
		if partial.StartTime.IsZero() {
			partial.StartTime = t.started
		}
		partial.EndTime = end
		summaries = append(summaries, partial)

		lw := model.LostWorker{
			Phase:     t.phase,
			WorkerID:  id,
			Start:     task.Start,
			End:       task.End,
			Completed: st.ItemsCompleted,
			Failed:    st.ItemsFailed,
			Lost:      task.Len() - st.Attempted(),
			Reason:    ErrWorkerCrashed.Error(),
		}
		accounted += st.Attempted() + lw.Lost
		lost = append(lost, lw)
	}

	if accounted != t.total {
		t.problem("accounted for %d items of %d", accounted, t.total)
	}
	if len(t.problems) > 0 {
		return summaries, lost, &AccountingError{Phase: t.phase, Problems: t.problems}
	}
	return summaries, lost, nil
}
