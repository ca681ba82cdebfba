package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/internal/store"
)

const runsPrefix = "/api/v1/runs/"

// Runner executes a run to completion, normally Coordinator.Execute
type Runner func(ctx context.Context, req model.RunRequest) (model.RunSummary, error)

// RunHandler serves the run history and starts new runs in the background
type RunHandler struct {
	History *store.DB
	Run     Runner
	// OutputRoot is used when a request does not name one. Every run gets
	// a <root>/<run_id> directory below it.
	OutputRoot string
	Logger     zerolog.Logger

	wg sync.WaitGroup
}

// Wait blocks until every run started through the API has returned
func (h *RunHandler) Wait() {
	h.wg.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"error": msg})
}

// CreateRun starts a new generation run
// @Summary Start a generation run
// @Description Validate the request, record the run and execute it asynchronously in its own directory under the output root
// @Tags runs
// @Accept json
// @Produce json
// @Param run body model.RunRequest true "Run request"
// @Success 202 {object} map[string]interface{} "Run accepted"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [post]
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req model.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	base := req.OutputRoot
	if base == "" {
		base = h.OutputRoot
	}
	if req.Corpus == "" {
		req.Corpus = model.CorpusPHI
	}
	req.RunID = uuid.New().String()
	// runs may overlap, so each one writes its documents and manifest under its own directory
	req.OutputRoot = filepath.Join(base, req.RunID)

	if err := pipeline.ValidateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.History.MarkStarted(r.Context(), req.RunID, req); err != nil {
		h.Logger.Error().Err(err).Str("run_id", req.RunID).Msg("failed to record run")
		writeError(w, http.StatusInternalServerError, "Failed to save run")
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		// the request context ends with the response; the run must not
		if _, err := h.Run(context.Background(), req); err != nil {
			h.Logger.Error().Err(err).Str("run_id", req.RunID).Msg("run failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Run started",
		"runID":     req.RunID,
		"status":    store.StatusRunning,
		"createdAt": time.Now().UTC(),
	})
}

// ListRuns retrieves recorded runs
// @Summary List runs
// @Description Get recorded runs with their status and totals, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum number of runs" default(50)
// @Success 200 {array} store.RunRecord "Runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.History.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetLatestRun returns the summary of the most recent finished run
// @Summary Latest run summary
// @Description Summary of the most recently finished run
// @Tags runs
// @Produce json
// @Success 200 {object} model.RunSummary "Run summary"
// @Failure 404 {object} map[string]interface{} "No finished run"
// @Router /runs/latest [get]
func (h *RunHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	rs, err := h.History.LoadLatest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load latest run")
		return
	}
	if rs == nil {
		writeError(w, http.StatusNotFound, "No finished run")
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// GetRun retrieves one run
// @Summary Get run
// @Description Status, request and summary of a run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} store.RunRecord "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(r.URL.Path, "")
	if !ok {
		writeError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	run, err := h.History.Get(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetRunWorkers retrieves per-worker statistics of a run
// @Summary Get run worker stats
// @Description Per-worker summaries ordered by phase and worker id
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.WorkerSummary "Worker summaries"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/workers [get]
func (h *RunHandler) GetRunWorkers(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(r.URL.Path, "/workers")
	if !ok {
		writeError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	stats, err := h.History.WorkerStats(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load worker stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// pathID extracts the run ID between runsPrefix and suffix
func pathID(path, suffix string) (string, bool) {
	if !strings.HasPrefix(path, runsPrefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id := strings.TrimSuffix(path[len(runsPrefix):], suffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
