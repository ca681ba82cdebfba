package pipeline

import (
	"sort"
	"time"

	"go-batch-generator/internal/model"
)

// Aggregate merges worker summaries into a run summary.
// It is a pure sum: the order of summaries does not change the result.
func Aggregate(summaries []model.WorkerSummary) model.RunSummary {
	rs := model.RunSummary{
		ByFormat:    make(map[string]int),
		ByCategory:  make(map[string]int),
		WorkerStats: make([]model.WorkerSummary, 0, len(summaries)),
	}

	for _, ws := range summaries {
		rs.TotalGenerated += ws.ItemsCompleted
		rs.Errors += ws.ItemsFailed
		rs.PhaseCounts.Positive += ws.PhaseCounts.Positive
		rs.PhaseCounts.Negative += ws.PhaseCounts.Negative

		mergeCounts(rs.ByFormat, ws.ByFormat)
		mergeCounts(rs.ByCategory, ws.ByCategory)

		if !ws.StartTime.IsZero() && (rs.StartTime.IsZero() || ws.StartTime.Before(rs.StartTime)) {
			rs.StartTime = ws.StartTime
		}
		if ws.EndTime.After(rs.EndTime) {
			rs.EndTime = ws.EndTime
		}

		rs.WorkerStats = append(rs.WorkerStats, ws)
	}

	sortWorkerStats(rs.WorkerStats)

	if !rs.StartTime.IsZero() && rs.EndTime.After(rs.StartTime) {
		rs.Duration = rs.EndTime.Sub(rs.StartTime)
	}
	rs.DocsPerSecond = docsPerSecond(rs.TotalGenerated, rs.Duration)
	return rs
}

func mergeCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}

func docsPerSecond(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

func phaseOrder(p model.Phase) int {
	for i, ph := range model.Phases {
		if ph == p {
			return i
		}
	}
	return len(model.Phases)
}

// sortWorkerStats orders summaries by phase, then worker id, then range start
func sortWorkerStats(stats []model.WorkerSummary) {
	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if pa, pb := phaseOrder(a.Phase), phaseOrder(b.Phase); pa != pb {
			return pa < pb
		}
		if a.WorkerID != b.WorkerID {
			return a.WorkerID < b.WorkerID
		}
		return a.Start < b.Start
	})
}
