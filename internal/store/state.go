package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-batch-generator/internal/model"
)

// DefaultStateFile is the file name of the state document under the output root
const DefaultStateFile = ".generation_state.json"

// FileState keeps the latest run summary in a single JSON document
type FileState struct {
	Path string
	Now  func() time.Time
}

func NewFileState(root, fileName string) *FileState {
	if fileName == "" {
		fileName = DefaultStateFile
	}
	return &FileState{Path: filepath.Join(root, fileName), Now: time.Now}
}

// stateDocument is the on-disk layout; stats keys for phase totals carry the corpus prefix
type stateDocument struct {
	Timestamp time.Time                  `json:"timestamp"`
	Stats     map[string]json.RawMessage `json:"stats"`
}

// Save overwrites the state file through a temp file and rename
func (f *FileState) Save(_ context.Context, summary model.RunSummary) (string, error) {
	stats, err := encodeStats(summary)
	if err != nil {
		return "", err
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	data, err := json.MarshalIndent(stateDocument{Timestamp: now().UTC(), Stats: stats}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".generation_state-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return "", fmt.Errorf("replace state file: %w", err)
	}
	return f.Path, nil
}

// LoadLatest reads the state file; a missing file yields nil, nil
func (f *FileState) LoadLatest(_ context.Context) (*model.RunSummary, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", f.Path, err)
	}
	return decodeStats(doc.Stats)
}

func encodeStats(rs model.RunSummary) (map[string]json.RawMessage, error) {
	corpus := rs.Corpus
	if corpus == "" {
		corpus = model.CorpusPHI
	}

	fields := map[string]any{
		"run_id":             rs.RunID,
		"corpus":             corpus,
		"seed":               rs.Seed,
		"workers":            rs.WorkerCount,
		"output_dir":         rs.OutputDir,
		"requested":          rs.Requested,
		"total_generated":    rs.TotalGenerated,
		corpus + "_positive": rs.PhaseCounts.Positive,
		corpus + "_negative": rs.PhaseCounts.Negative,
		"by_format":          rs.ByFormat,
		"by_category":        rs.ByCategory,
		"errors":             rs.Errors,
		"lost_items":         rs.LostItems,
		"lost_workers":       rs.LostWorkers,
		"start_time":         rs.StartTime,
		"end_time":           rs.EndTime,
		"duration":           rs.Duration.Seconds(),
		"docs_per_second":    rs.DocsPerSecond,
		"worker_stats":       rs.WorkerStats,
	}

	stats := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode stat %s: %w", k, err)
		}
		stats[k] = raw
	}
	return stats, nil
}

func decodeStats(stats map[string]json.RawMessage) (*model.RunSummary, error) {
	rs := &model.RunSummary{}
	var seconds float64

	targets := map[string]any{
		"run_id":          &rs.RunID,
		"corpus":          &rs.Corpus,
		"seed":            &rs.Seed,
		"workers":         &rs.WorkerCount,
		"output_dir":      &rs.OutputDir,
		"requested":       &rs.Requested,
		"total_generated": &rs.TotalGenerated,
		"by_format":       &rs.ByFormat,
		"by_category":     &rs.ByCategory,
		"errors":          &rs.Errors,
		"lost_items":      &rs.LostItems,
		"lost_workers":    &rs.LostWorkers,
		"start_time":      &rs.StartTime,
		"end_time":        &rs.EndTime,
		"duration":        &seconds,
		"docs_per_second": &rs.DocsPerSecond,
		"worker_stats":    &rs.WorkerStats,
	}
	for k, dst := range targets {
		raw, ok := stats[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("decode stat %s: %w", k, err)
		}
	}

	if rs.Corpus == "" {
		rs.Corpus = model.CorpusPHI
	}
	for key, dst := range map[string]*int{
		rs.Corpus + "_positive": &rs.PhaseCounts.Positive,
		rs.Corpus + "_negative": &rs.PhaseCounts.Negative,
	} {
		if raw, ok := stats[key]; ok {
			if err := json.Unmarshal(raw, dst); err != nil {
				return nil, fmt.Errorf("decode stat %s: %w", key, err)
			}
		}
	}

	rs.Duration = time.Duration(seconds * float64(time.Second))
	return rs, nil
}
