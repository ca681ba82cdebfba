package console

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-batch-generator/internal/inventory"
	"go-batch-generator/internal/model"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/internal/store"
)

func summary() model.RunSummary {
	return model.RunSummary{
		RunID:          "run-42",
		Corpus:         model.CorpusPHI,
		Seed:           42,
		WorkerCount:    3,
		OutputDir:      "/data/out",
		Requested:      model.PhaseCounts{Positive: 6, Negative: 4},
		TotalGenerated: 8,
		PhaseCounts:    model.PhaseCounts{Positive: 5, Negative: 3},
		ByFormat:       map[string]int{"pdf": 5, "eml": 3},
		ByCategory:     map[string]int{"LabResult": 5, "Policy": 3},
		Errors:         1,
		Duration:       2 * time.Second,
		DocsPerSecond:  4,
		EndTime:        time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(summary())

	assert.Contains(t, out, "Generation complete")
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "PHI")
	assert.Contains(t, out, "8 / 10 (80.0%)")
	assert.Contains(t, out, "5 / 6")
	assert.Contains(t, out, "eml=3 pdf=5")
	assert.Contains(t, out, "LabResult=5 Policy=3")
	assert.Contains(t, out, "4.0 docs/s")
	assert.NotContains(t, out, "lost")
}

func TestRenderSummary_Degraded(t *testing.T) {
	rs := summary()
	rs.LostItems = 1
	rs.LostWorkers = []model.LostWorker{{Phase: model.PhasePositive, WorkerID: 2, Start: 4, End: 6, Completed: 1, Lost: 1}}

	out := RenderSummary(rs)
	assert.Contains(t, out, "1 worker(s) lost, 1 item(s) unaccounted")
	assert.Contains(t, out, "positive worker 2 [4,6): 1 completed, 0 failed, 1 lost")
}

func TestRenderPrevious(t *testing.T) {
	assert.Contains(t, RenderPrevious(nil), "No previous generation found")

	rs := summary()
	out := RenderPrevious(&rs)
	assert.Contains(t, out, "Found previous generation")
	assert.Contains(t, out, "PHI positive")
	assert.NotContains(t, out, "Lost items")

	rs.LostItems = 2
	assert.Contains(t, RenderPrevious(&rs), "Lost items")
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(nil), "No runs recorded")

	out := RenderHistory([]store.RunRecord{
		{ID: "run-b", Corpus: "cui", Status: store.StatusDegraded, TotalGenerated: 9, LostItems: 1, CreatedAt: time.Now()},
		{ID: "run-a", Corpus: "phi", Status: store.StatusCompleted, TotalGenerated: 10, CreatedAt: time.Now()},
	})
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "run-b")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "CUI")
	assert.Less(t, bytes.Index([]byte(out), []byte("run-b")), bytes.Index([]byte(out), []byte("run-a")))
}

func scannedReport(t *testing.T) *inventory.Report {
	t.Helper()
	root := t.TempDir()
	files := map[string]int{
		"positive/PHI_POS_LabResult_W00_0000.pdf": 2048,
		"positive/PHI_POS_LabResult_W00_0001.pdf": 1024,
		"negative/PHI_NEG_Policy_W00_0000.docx":   1024,
		"metadata/manifest.json":                  512,
	}
	for i := 0; i < 12; i++ {
		files[filepath.Join("negative", "bulk", strings.Repeat("n", i+1)+".txt")] = 1
	}
	for rel, size := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	}
	r, err := inventory.Scan(root)
	require.NoError(t, err)
	return r
}

func TestRenderInventory(t *testing.T) {
	r := scannedReport(t)
	out := RenderInventory(r, false)

	assert.Contains(t, out, "Document statistics")
	assert.Contains(t, out, "16")
	assert.Contains(t, out, "FORMAT")
	assert.Contains(t, out, "pdf")
	assert.Contains(t, out, "12.5%")
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "LabResult")
	assert.NotContains(t, out, "Directory structure")
}

func TestRenderInventory_Tree(t *testing.T) {
	out := RenderInventory(scannedReport(t), true)

	assert.Contains(t, out, "Directory structure")
	assert.Contains(t, out, "PHI_POS_LabResult_W00_0000.pdf")
	assert.Contains(t, out, "manifest.json")
	assert.Contains(t, out, filepath.Join("negative", "bulk"))
	assert.Contains(t, out, "nnnnnnnnnn.txt")
	assert.NotContains(t, out, "nnnnnnnnnnnn.txt", "at most ten files per directory")
}

func TestRenderInventory_Empty(t *testing.T) {
	r, err := inventory.Scan(t.TempDir())
	require.NoError(t, err)
	out := RenderInventory(r, true)
	assert.Contains(t, out, "Total files")
	assert.NotContains(t, out, "FORMAT")
	assert.NotContains(t, out, "Average size")
}

func TestRenderChecks(t *testing.T) {
	out := RenderChecks([]Check{
		{Setting: "config file", OK: true, Detail: "/etc/batchgen.yaml"},
		{Setting: "history db", Detail: "batchgen.db"},
	})
	assert.Contains(t, out, "Configuration check")
	assert.Contains(t, out, "/etc/batchgen.yaml")
	assert.Contains(t, out, "missing")
	assert.Less(t, strings.Index(out, "config file"), strings.Index(out, "history db"))
}

func TestBarReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewBarReporter(&buf)
	task := model.Task{ID: 0, Phase: model.PhaseNegative, Start: 0, End: 2}

	// messages outside a phase are ignored
	r.Observe(model.ProgressMsg(task, 0, model.Artifact{}))
	assert.Zero(t, buf.Len())

	r.PhaseStarted(model.PhaseNegative, 2, 1)
	r.Observe(model.ProgressMsg(task, 0, model.Artifact{}))
	r.Observe(model.ErrorMsg(task, 1, nil))
	r.Observe(model.DoneMsg(model.WorkerSummary{Phase: model.PhaseNegative}))
	r.Heartbeat(pipeline.PhaseSnapshot{})
	r.PhaseFinished(pipeline.PhaseSnapshot{Phase: model.PhaseNegative, Total: 2, Completed: 1, Failed: 1})

	assert.Contains(t, buf.String(), "negative")
	assert.Nil(t, r.bar)

	buf.Reset()
	r.PhaseStarted(model.PhasePositive, 4, 2)
	r.Observe(model.ProgressMsg(task, 0, model.Artifact{}))
	r.PhaseFinished(pipeline.PhaseSnapshot{Phase: model.PhasePositive, Total: 4, Workers: 2, DoneWorkers: 1, Completed: 1, Lost: 3})
	assert.Contains(t, buf.String(), "positive 3 lost, 1 of 2 workers did not finish")
	assert.Nil(t, r.bar)
}
