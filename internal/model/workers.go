package model

import "time"

// PhaseCounts splits item counts by phase
type PhaseCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Add increments the counter for a phase
func (pc *PhaseCounts) Add(p Phase, n int) {
	switch p {
	case PhasePositive:
		pc.Positive += n
	case PhaseNegative:
		pc.Negative += n
	}
}

// Get returns the counter for a phase
func (pc PhaseCounts) Get(p Phase) int {
	switch p {
	case PhasePositive:
		return pc.Positive
	case PhaseNegative:
		return pc.Negative
	}
	return 0
}

// WorkerSummary is the local tally of one worker, finalized once when its range is exhausted
type WorkerSummary struct {
	WorkerID       int            `json:"worker_id"`
	Phase          Phase          `json:"phase"`
	Start          int            `json:"start"`
	End            int            `json:"end"`
	ItemsCompleted int            `json:"items_completed"`
	ItemsFailed    int            `json:"items_failed"`
	ByFormat       map[string]int `json:"by_format"`
	ByCategory     map[string]int `json:"by_category"`
	PhaseCounts    PhaseCounts    `json:"phase_counts"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	// Lost is set on summaries rebuilt by the coordinator for a worker that never reported done
	Lost bool `json:"lost,omitempty"`
}

// NewWorkerSummary creates an empty summary for a task
func NewWorkerSummary(task Task) WorkerSummary {
	return WorkerSummary{
		WorkerID:   task.ID,
		Phase:      task.Phase,
		Start:      task.Start,
		End:        task.End,
		ByFormat:   make(map[string]int),
		ByCategory: make(map[string]int),
	}
}

// Duration returns how long the worker ran
func (ws WorkerSummary) Duration() time.Duration {
	return ws.EndTime.Sub(ws.StartTime)
}

// DocsPerSecond returns the worker's completion rate
func (ws WorkerSummary) DocsPerSecond() float64 {
	d := ws.Duration().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(ws.ItemsCompleted) / d
}

// Attempted returns completed plus failed items
func (ws WorkerSummary) Attempted() int {
	return ws.ItemsCompleted + ws.ItemsFailed
}
