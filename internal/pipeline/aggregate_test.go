package pipeline

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-batch-generator/internal/model"
)

func workerSummary(phase model.Phase, id, completed, failed int, start, end time.Time, formats map[string]int) model.WorkerSummary {
	ws := model.WorkerSummary{
		WorkerID:       id,
		Phase:          phase,
		ItemsCompleted: completed,
		ItemsFailed:    failed,
		ByFormat:       formats,
		ByCategory:     map[string]int{"Cat": completed},
		StartTime:      start,
		EndTime:        end,
	}
	ws.PhaseCounts.Add(phase, completed)
	return ws
}

func TestAggregate_SumsEverything(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	summaries := []model.WorkerSummary{
		workerSummary(model.PhasePositive, 0, 4, 1, t0, t0.Add(3*time.Second), map[string]int{"pdf": 3, "docx": 1}),
		workerSummary(model.PhasePositive, 1, 5, 0, t0.Add(time.Second), t0.Add(4*time.Second), map[string]int{"pdf": 5}),
		workerSummary(model.PhaseNegative, 0, 1, 2, t0.Add(5*time.Second), t0.Add(10*time.Second), map[string]int{"eml": 1}),
	}

	rs := Aggregate(summaries)
	assert.Equal(t, 10, rs.TotalGenerated)
	assert.Equal(t, 3, rs.Errors)
	assert.Equal(t, model.PhaseCounts{Positive: 9, Negative: 1}, rs.PhaseCounts)
	assert.Equal(t, map[string]int{"pdf": 8, "docx": 1, "eml": 1}, rs.ByFormat)
	assert.Equal(t, map[string]int{"Cat": 10}, rs.ByCategory)
	assert.Equal(t, t0, rs.StartTime)
	assert.Equal(t, t0.Add(10*time.Second), rs.EndTime)
	assert.Equal(t, 10*time.Second, rs.Duration)
	assert.InDelta(t, 1.0, rs.DocsPerSecond, 1e-9)
	assert.Len(t, rs.WorkerStats, 3)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var summaries []model.WorkerSummary
	for i := 0; i < 8; i++ {
		phase := model.PhasePositive
		if i%2 == 1 {
			phase = model.PhaseNegative
		}
		summaries = append(summaries, workerSummary(phase, i/2, i+1, i%3,
			t0.Add(time.Duration(i)*time.Second), t0.Add(time.Duration(i+5)*time.Second),
			map[string]int{"pdf": i + 1}))
	}

	want := Aggregate(summaries)

	rng := rand.New(rand.NewPCG(1, 2))
	for n := 0; n < 10; n++ {
		shuffled := append([]model.WorkerSummary(nil), summaries...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Aggregate(shuffled))
	}
}

func TestAggregate_WorkerStatsSortedByPhaseThenID(t *testing.T) {
	t0 := time.Now()
	rs := Aggregate([]model.WorkerSummary{
		workerSummary(model.PhaseNegative, 1, 1, 0, t0, t0, nil),
		workerSummary(model.PhasePositive, 1, 1, 0, t0, t0, nil),
		workerSummary(model.PhaseNegative, 0, 1, 0, t0, t0, nil),
		workerSummary(model.PhasePositive, 0, 1, 0, t0, t0, nil),
	})

	var got []string
	for _, ws := range rs.WorkerStats {
		got = append(got, string(ws.Phase)+string(rune('0'+ws.WorkerID)))
	}
	assert.Equal(t, []string{"positive0", "positive1", "negative0", "negative1"}, got)
}

func TestAggregate_ZeroDurationHasZeroRate(t *testing.T) {
	t0 := time.Now()
	rs := Aggregate([]model.WorkerSummary{
		workerSummary(model.PhasePositive, 0, 3, 0, t0, t0, nil),
	})
	assert.Zero(t, rs.Duration)
	assert.Zero(t, rs.DocsPerSecond)
}

func TestAggregate_Empty(t *testing.T) {
	rs := Aggregate(nil)
	assert.Zero(t, rs.TotalGenerated)
	assert.NotNil(t, rs.ByFormat)
	assert.NotNil(t, rs.ByCategory)
	assert.Empty(t, rs.WorkerStats)
	assert.Zero(t, rs.DocsPerSecond)
}
