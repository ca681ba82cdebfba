package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-batch-generator/internal/model"
)

func sampleSummary(runID string, lost bool) model.RunSummary {
	start := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	rs := model.RunSummary{
		RunID:          runID,
		Corpus:         model.CorpusCUI,
		Seed:           17,
		WorkerCount:    2,
		OutputDir:      "/tmp/out",
		Requested:      model.PhaseCounts{Positive: 4, Negative: 2},
		TotalGenerated: 5,
		PhaseCounts:    model.PhaseCounts{Positive: 3, Negative: 2},
		ByFormat:       map[string]int{"pdf": 5},
		ByCategory:     map[string]int{"LegalMemo": 3, "PressRelease": 2},
		Errors:         1,
		StartTime:      start,
		EndTime:        start.Add(1500 * time.Millisecond),
		Duration:       1500 * time.Millisecond,
		DocsPerSecond:  5 / 1.5,
		WorkerStats: []model.WorkerSummary{
			{WorkerID: 0, Phase: model.PhasePositive, Start: 0, End: 2, ItemsCompleted: 1, ItemsFailed: 1},
			{WorkerID: 1, Phase: model.PhasePositive, Start: 2, End: 4, ItemsCompleted: 2},
			{WorkerID: 0, Phase: model.PhaseNegative, Start: 0, End: 2, ItemsCompleted: 2},
		},
	}
	if lost {
		rs.LostWorkers = []model.LostWorker{{Phase: model.PhasePositive, WorkerID: 1, Start: 2, End: 4, Completed: 1, Lost: 1}}
		rs.LostItems = 1
	}
	return rs
}

func TestFileState_LoadLatestMissingFile(t *testing.T) {
	st := NewFileState(t.TempDir(), "")
	rs, err := st.LoadLatest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rs)
}

func TestFileState_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	st := NewFileState(filepath.Join(dir, "nested"), "")
	st.Now = func() time.Time { return time.Date(2024, 4, 1, 13, 0, 0, 0, time.UTC) }

	want := sampleSummary("run-a", true)
	location, err := st.Save(context.Background(), want)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", DefaultStateFile), location)

	got, err := st.LoadLatest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Corpus, got.Corpus)
	assert.Equal(t, want.Seed, got.Seed)
	assert.Equal(t, want.Requested, got.Requested)
	assert.Equal(t, want.PhaseCounts, got.PhaseCounts)
	assert.Equal(t, want.ByFormat, got.ByFormat)
	assert.Equal(t, want.ByCategory, got.ByCategory)
	assert.Equal(t, want.LostWorkers, got.LostWorkers)
	assert.Equal(t, want.Duration, got.Duration)
	assert.True(t, want.EndTime.Equal(got.EndTime))
	assert.Len(t, got.WorkerStats, 3)

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed or removed")
}

func TestFileState_DocumentLayout(t *testing.T) {
	st := NewFileState(t.TempDir(), "state.json")
	_, err := st.Save(context.Background(), sampleSummary("run-b", false))
	require.NoError(t, err)

	data, err := os.ReadFile(st.Path)
	require.NoError(t, err)

	var doc struct {
		Timestamp time.Time      `json:"timestamp"`
		Stats     map[string]any `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.False(t, doc.Timestamp.IsZero())

	stats := doc.Stats
	assert.EqualValues(t, 3, stats["cui_positive"])
	assert.EqualValues(t, 2, stats["cui_negative"])
	assert.EqualValues(t, 5, stats["total_generated"])
	assert.InDelta(t, 1.5, stats["duration"], 1e-9)
}

func TestFileState_OverwritesPreviousRun(t *testing.T) {
	st := NewFileState(t.TempDir(), "")
	_, err := st.Save(context.Background(), sampleSummary("first", false))
	require.NoError(t, err)
	_, err = st.Save(context.Background(), sampleSummary("second", false))
	require.NoError(t, err)

	got, err := st.LoadLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", got.RunID)
}

func TestFileState_CorruptFile(t *testing.T) {
	st := NewFileState(t.TempDir(), "")
	require.NoError(t, os.WriteFile(st.Path, []byte("{not json"), 0644))

	_, err := st.LoadLatest(context.Background())
	assert.Error(t, err)
}
