package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/internal/producer"
	"go-batch-generator/internal/store"
)

func newHandler(t *testing.T, run Runner) *RunHandler {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &RunHandler{History: db, Run: run, OutputRoot: t.TempDir(), Logger: zerolog.Nop()}
}

// completingRunner saves a summary the way the coordinator's state store would
func completingRunner(db *store.DB, got chan<- model.RunRequest) Runner {
	return func(ctx context.Context, req model.RunRequest) (model.RunSummary, error) {
		rs := model.RunSummary{
			RunID:          req.RunID,
			Corpus:         req.Corpus,
			WorkerCount:    req.Workers,
			Requested:      model.PhaseCounts{Positive: req.Positive, Negative: req.Negative},
			TotalGenerated: req.Positive + req.Negative,
			PhaseCounts:    model.PhaseCounts{Positive: req.Positive, Negative: req.Negative},
			EndTime:        time.Now(),
			WorkerStats: []model.WorkerSummary{
				{WorkerID: 0, Phase: model.PhasePositive, End: req.Positive, ItemsCompleted: req.Positive},
			},
		}
		_, err := db.Save(ctx, rs)
		got <- req
		return rs, err
	}
}

func do(h http.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestCreateRun_AcceptsAndRuns(t *testing.T) {
	got := make(chan model.RunRequest, 1)
	h := newHandler(t, nil)
	h.Run = completingRunner(h.History, got)

	rec := do(h.CreateRun, http.MethodPost, "/api/v1/runs", `{"positive":3,"negative":2,"workers":2}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]any
	decode(t, rec, &resp)
	runID, _ := resp["runID"].(string)
	require.NotEmpty(t, runID)
	assert.Equal(t, store.StatusRunning, resp["status"])

	h.Wait()
	req := <-got
	assert.Equal(t, runID, req.RunID)
	assert.Equal(t, model.CorpusPHI, req.Corpus, "corpus defaults")
	assert.Equal(t, filepath.Join(h.OutputRoot, runID), req.OutputRoot, "output root defaults, one directory per run")

	rec = do(h.GetRun, http.MethodGet, "/api/v1/runs/"+runID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run store.RunRecord
	decode(t, rec, &run)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, 5, run.TotalGenerated)
	require.NotNil(t, run.Summary)

	rec = do(h.GetRunWorkers, http.MethodGet, "/api/v1/runs/"+runID+"/workers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats []model.WorkerSummary
	decode(t, rec, &stats)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].ItemsCompleted)

	rec = do(h.GetLatestRun, http.MethodGet, "/api/v1/runs/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest model.RunSummary
	decode(t, rec, &latest)
	assert.Equal(t, runID, latest.RunID)
}

func TestCreateRun_RecordedBeforeRunning(t *testing.T) {
	release := make(chan struct{})
	h := newHandler(t, func(ctx context.Context, req model.RunRequest) (model.RunSummary, error) {
		<-release
		return model.RunSummary{}, errors.New("stopped")
	})

	rec := do(h.CreateRun, http.MethodPost, "/api/v1/runs", `{"positive":1,"workers":1}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]any
	decode(t, rec, &resp)

	rec = do(h.GetRun, http.MethodGet, "/api/v1/runs/"+resp["runID"].(string), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run store.RunRecord
	decode(t, rec, &run)
	assert.Equal(t, store.StatusRunning, run.Status)

	close(release)
	h.Wait()
}

func TestCreateRun_OverlappingRunsKeepSeparateOutput(t *testing.T) {
	c := pipeline.NewCoordinator(&pipeline.InProcessLauncher{
		Factory: producer.NewFactory(),
		Worker:  pipeline.Worker{Logger: zerolog.Nop()},
	}, pipeline.WithManifest(true))

	// neither run starts generating until both have been accepted
	var started sync.WaitGroup
	started.Add(2)
	var mu sync.Mutex
	summaries := map[string]model.RunSummary{}
	h := newHandler(t, func(ctx context.Context, req model.RunRequest) (model.RunSummary, error) {
		started.Done()
		started.Wait()
		rs, err := c.Execute(ctx, req)
		mu.Lock()
		summaries[req.RunID] = rs
		mu.Unlock()
		return rs, err
	})

	var ids []string
	for _, body := range []string{
		`{"positive":5,"negative":2,"workers":2,"seed":1}`,
		`{"positive":3,"negative":4,"workers":3,"seed":1,"corpus":"cui"}`,
	} {
		rec := do(h.CreateRun, http.MethodPost, "/api/v1/runs", body)
		require.Equal(t, http.StatusAccepted, rec.Code)
		var resp map[string]any
		decode(t, rec, &resp)
		ids = append(ids, resp["runID"].(string))
	}
	h.Wait()
	require.Len(t, summaries, 2)

	for _, id := range ids {
		rs := summaries[id]
		assert.Equal(t, filepath.Join(h.OutputRoot, id), rs.OutputDir)
		assert.Equal(t, rs.Requested.Positive+rs.Requested.Negative, rs.TotalGenerated)

		pos, err := os.ReadDir(filepath.Join(rs.OutputDir, "positive"))
		require.NoError(t, err)
		assert.Len(t, pos, rs.PhaseCounts.Positive, id)
		neg, err := os.ReadDir(filepath.Join(rs.OutputDir, "negative"))
		require.NoError(t, err)
		assert.Len(t, neg, rs.PhaseCounts.Negative, id)

		data, err := os.ReadFile(filepath.Join(rs.OutputDir, "metadata", "manifest.json"))
		require.NoError(t, err)
		var manifest struct {
			RunID     string                   `json:"run_id"`
			Documents []pipeline.ManifestEntry `json:"documents"`
		}
		require.NoError(t, json.Unmarshal(data, &manifest))
		assert.Equal(t, id, manifest.RunID)
		assert.Len(t, manifest.Documents, rs.TotalGenerated)
	}
}

func TestCreateRun_BadRequests(t *testing.T) {
	h := newHandler(t, func(context.Context, model.RunRequest) (model.RunSummary, error) {
		t.Error("runner must not be called")
		return model.RunSummary{}, nil
	})

	for name, body := range map[string]string{
		"malformed json": `{"positive":`,
		"no workers":     `{"positive":1,"workers":0}`,
		"bad corpus":     `{"positive":1,"workers":1,"corpus":"pii"}`,
		"bad format":     `{"positive":1,"workers":1,"formats":["gif"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(h.CreateRun, http.MethodPost, "/api/v1/runs", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp map[string]string
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp["error"])
		})
	}

	runs, err := h.History.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestListRuns(t *testing.T) {
	h := newHandler(t, nil)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, h.History.MarkStarted(ctx, id, model.RunRequest{Workers: 1, OutputRoot: "out"}))
	}

	rec := do(h.ListRuns, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []store.RunRecord
	decode(t, rec, &runs)
	assert.Len(t, runs, 3)

	rec = do(h.ListRuns, http.MethodGet, "/api/v1/runs?limit=2", "")
	decode(t, rec, &runs)
	assert.Len(t, runs, 2)
}

func TestGetRun_Errors(t *testing.T) {
	h := newHandler(t, nil)

	rec := do(h.GetLatestRun, http.MethodGet, "/api/v1/runs/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h.GetRun, http.MethodGet, "/api/v1/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h.GetRunWorkers, http.MethodGet, "/api/v1/runs/missing/workers", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h.GetRun, http.MethodGet, "/api/v1/runs/a/b", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPathID(t *testing.T) {
	id, ok := pathID("/api/v1/runs/abc", "")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	id, ok = pathID("/api/v1/runs/abc/workers", "/workers")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	for _, path := range []string{"/api/v1/runs/", "/api/v1/runs//workers", "/other/abc", "/api/v1/runs/a/b/workers"} {
		_, ok = pathID(path, "/workers")
		assert.False(t, ok, path)
	}
}
