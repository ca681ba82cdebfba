package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"go-batch-generator/internal/model"
)

// ManifestEntry is one produced document as listed in the run manifest
type ManifestEntry struct {
	Phase    model.Phase `json:"phase"`
	WorkerID int         `json:"worker_id"`
	Index    int         `json:"index"`
	Path     string      `json:"path"`
	Format   string      `json:"format"`
	Category string      `json:"category"`
}

// ExportResult represents the result of one manifest export
type ExportResult struct {
	Type        string    `json:"type"`
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ExportedAt  time.Time `json:"exported_at"`
}

// Manifest collects artifacts from progress messages and writes them under <dir>/metadata
type Manifest struct {
	mu      sync.Mutex
	entries []ManifestEntry
}

func NewManifest() *Manifest {
	return &Manifest{}
}

// Observe implements Reporter so the manifest can ride on the progress stream
func (m *Manifest) Observe(msg model.ProgressMessage) {
	if msg.Kind != model.KindProgress || msg.Artifact == nil {
		return
	}
	m.mu.Lock()
	m.entries = append(m.entries, ManifestEntry{
		Phase:    msg.Phase,
		WorkerID: msg.WorkerID,
		Index:    msg.Index,
		Path:     msg.Artifact.Path,
		Format:   msg.Artifact.Format,
		Category: msg.Artifact.Category,
	})
	m.mu.Unlock()
}

func (m *Manifest) PhaseStarted(model.Phase, int, int) {}
func (m *Manifest) Heartbeat(PhaseSnapshot)            {}
func (m *Manifest) PhaseFinished(PhaseSnapshot)        {}

// Entries returns the collected entries ordered by phase then index
func (m *Manifest) Entries() []ManifestEntry {
	m.mu.Lock()
	out := make([]ManifestEntry, len(m.entries))
	copy(out, m.entries)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if pi, pj := phaseOrder(out[i].Phase), phaseOrder(out[j].Phase); pi != pj {
			return pi < pj
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Export writes manifest.json and manifest.csv into <dir>/metadata
func (m *Manifest) Export(dir string, summary model.RunSummary) []ExportResult {
	entries := m.Entries()
	metaDir := filepath.Join(dir, "metadata")

	results := make([]ExportResult, 0, 2)
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return append(results, ExportResult{
			Type:       "directory",
			Path:       metaDir,
			Error:      fmt.Sprintf("failed to create directory: %v", err),
			ExportedAt: time.Now(),
		})
	}

	jsonPath := filepath.Join(metaDir, "manifest.json")
	results = append(results, exportResult("json", jsonPath, len(entries), exportManifestJSON(jsonPath, summary, entries)))

	csvPath := filepath.Join(metaDir, "manifest.csv")
	results = append(results, exportResult("csv", csvPath, len(entries), exportManifestCSV(csvPath, entries)))

	return results
}

func exportResult(kind, path string, n int, err error) ExportResult {
	r := ExportResult{
		Type:        kind,
		Path:        path,
		RecordCount: n,
		Success:     err == nil,
		ExportedAt:  time.Now(),
	}
	if err != nil {
		r.RecordCount = 0
		r.Error = err.Error()
	}
	return r
}

func exportManifestJSON(path string, summary model.RunSummary, entries []ManifestEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	doc := struct {
		RunID       string          `json:"run_id"`
		Corpus      string          `json:"corpus"`
		Seed        int64           `json:"seed"`
		GeneratedAt time.Time       `json:"generated_at"`
		Documents   []ManifestEntry `json:"documents"`
	}{
		RunID:       summary.RunID,
		Corpus:      summary.Corpus,
		Seed:        summary.Seed,
		GeneratedAt: summary.EndTime,
		Documents:   entries,
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func exportManifestCSV(path string, entries []ManifestEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"phase", "worker_id", "index", "category", "format", "path"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			string(e.Phase),
			strconv.Itoa(e.WorkerID),
			strconv.Itoa(e.Index),
			e.Category,
			e.Format,
			e.Path,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
