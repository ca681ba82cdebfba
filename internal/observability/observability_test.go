package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/pipeline"
)

func TestNewLoggerTo_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LoggingConfig{Level: "warn", Format: "json"})

	logger.Info().Msg("hidden")
	runLogger := logger.With().Str("run_id", "run-1").Str("corpus", "phi").Logger()
	runLogger.Warn().Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "phi", entry["corpus"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewLoggerTo_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LoggingConfig{Level: "debug", Format: "console"})
	logger.Debug().Str("phase", "positive").Int("worker_id", 3).Msg("worker ready")

	out := buf.String()
	assert.Contains(t, out, "worker ready")
	assert.Contains(t, out, "worker_id=")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, parseLevel("TRACE"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics("test", prometheus.NewRegistry())
}

func histogramCount(t *testing.T, h prometheus.Observer) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics_RunOutcomes(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRunStarted()
	m.RecordRunStarted()
	m.RecordRunStarted()
	m.RecordRunFinished(model.RunSummary{Duration: 2 * time.Second}, nil)
	m.RecordRunFinished(model.RunSummary{LostItems: 1, LostWorkers: []model.LostWorker{{Lost: 1}}}, nil)
	m.RecordRunFinished(model.RunSummary{}, errors.New("mismatch"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RunsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsCompleted.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsCompleted.WithLabelValues("degraded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsFailed))
	assert.Equal(t, uint64(2), histogramCount(t, m.RunDuration))
}

func TestMetricsReporter_FollowsProgressStream(t *testing.T) {
	m := newTestMetrics(t)
	var r pipeline.Reporter = m.Reporter()
	task := model.Task{ID: 0, Phase: model.PhasePositive, Start: 0, End: 4}

	r.PhaseStarted(model.PhasePositive, 4, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveWorkers.WithLabelValues("positive")))

	r.Observe(model.ProgressMsg(task, 0, model.Artifact{Format: "pdf"}))
	r.Observe(model.ProgressMsg(task, 1, model.Artifact{Format: "pdf"}))
	r.Observe(model.ProgressMsg(task, 2, model.Artifact{}))
	r.Observe(model.ErrorMsg(task, 3, errors.New("boom")))
	r.Observe(model.DoneMsg(model.WorkerSummary{WorkerID: 0, Phase: model.PhasePositive}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemsGenerated.WithLabelValues("positive", "pdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsGenerated.WithLabelValues("positive", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsFailed.WithLabelValues("positive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveWorkers.WithLabelValues("positive")))

	r.Heartbeat(pipeline.PhaseSnapshot{Phase: model.PhasePositive, Total: 8, Completed: 3, Failed: 1})
	assert.InDelta(t, 0.5, testutil.ToFloat64(m.PhaseProgress.WithLabelValues("positive")), 1e-9)

	r.PhaseFinished(pipeline.PhaseSnapshot{
		Phase: model.PhasePositive, Total: 8, Workers: 2, DoneWorkers: 1,
		Completed: 3, Failed: 1, Lost: 4, Elapsed: time.Second,
	})
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.PhaseProgress.WithLabelValues("positive")), 1e-9)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveWorkers.WithLabelValues("positive")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ItemsLost.WithLabelValues("positive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkersLost.WithLabelValues("positive")))
	assert.Equal(t, uint64(1), histogramCount(t, m.PhaseDuration.WithLabelValues("positive")))
}

func TestMetricsReporter_EmptyPhase(t *testing.T) {
	m := newTestMetrics(t)
	r := m.Reporter()

	r.PhaseStarted(model.PhaseNegative, 0, 1)
	r.PhaseFinished(pipeline.PhaseSnapshot{Phase: model.PhaseNegative, Workers: 1, DoneWorkers: 1})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.PhaseProgress.WithLabelValues("negative")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.WorkersLost))
}
