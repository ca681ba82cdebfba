package model

import "time"

// LostWorker records a worker that exited without reporting done
type LostWorker struct {
	Phase     Phase  `json:"phase"`
	WorkerID  int    `json:"worker_id"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Lost      int    `json:"lost"`
	Reason    string `json:"reason,omitempty"`
}

// RunSummary is the merged result of every worker of a run
type RunSummary struct {
	RunID          string          `json:"run_id"`
	Corpus         string          `json:"corpus"`
	Seed           int64           `json:"seed"`
	WorkerCount    int             `json:"workers"`
	OutputDir      string          `json:"output_dir,omitempty"`
	Requested      PhaseCounts     `json:"requested"`
	TotalGenerated int             `json:"total_generated"`
	PhaseCounts    PhaseCounts     `json:"phase_counts"`
	ByFormat       map[string]int  `json:"by_format"`
	ByCategory     map[string]int  `json:"by_category"`
	Errors         int             `json:"errors"`
	LostItems      int             `json:"lost_items"`
	LostWorkers    []LostWorker    `json:"lost_workers,omitempty"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Duration       time.Duration   `json:"duration"`
	DocsPerSecond  float64         `json:"docs_per_second"`
	WorkerStats    []WorkerSummary `json:"worker_stats"`
}

// Degraded reports whether any worker was lost during the run
func (rs RunSummary) Degraded() bool {
	return len(rs.LostWorkers) > 0
}

// Failed returns the number of failed items for a phase
func (rs RunSummary) Failed(p Phase) int {
	n := 0
	for _, ws := range rs.WorkerStats {
		if ws.Phase == p {
			n += ws.ItemsFailed
		}
	}
	return n
}

// Lost returns the number of unaccounted items for a phase
func (rs RunSummary) Lost(p Phase) int {
	n := 0
	for _, lw := range rs.LostWorkers {
		if lw.Phase == p {
			n += lw.Lost
		}
	}
	return n
}
