package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunFolderPrefix names the timestamped folder of one run
const RunFolderPrefix = "production_run_"

// OutputManager handles output directory layout and document file naming
type OutputManager struct {
	BaseOutputDir string
	// UseRunFolder places each run under production_run_YYYYMMDD_HHMMSS
	UseRunFolder bool
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string, useRunFolder bool) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
		UseRunFolder:  useRunFolder,
	}
}

// RunFolderName returns the folder name for a run started at t
func RunFolderName(t time.Time) string {
	return RunFolderPrefix + t.Format("20060102_150405")
}

// CreateRunOutputDir creates the directory a run writes its documents to
func (om *OutputManager) CreateRunOutputDir(started time.Time) (string, error) {
	dir := om.BaseOutputDir
	if om.UseRunFolder {
		dir = filepath.Join(dir, RunFolderName(started))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}
	return dir, nil
}

// PhaseDir returns the sub-directory for a phase's documents, creating it if needed
func (om *OutputManager) PhaseDir(runDir, phase string) (string, error) {
	dir := filepath.Join(runDir, phase)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create phase directory: %w", err)
	}
	return dir, nil
}

// GetFileType determines the document format based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".pdf", ".docx", ".xlsx", ".eml", ".pptx", ".txt", ".csv", ".json", ".md", ".html":
		return ext[1:]
	case ".xls":
		return "xlsx"
	case ".htm":
		return "html"
	default:
		return "unknown"
	}
}

// GetFileSize returns the size of a file in bytes
func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}

// DocumentFileName builds a name unique per (phase, worker, index)
func DocumentFileName(corpus, phase, category string, workerID, index int, format string) string {
	tag := "NEG"
	if phase == "positive" {
		tag = "POS"
	}
	return fmt.Sprintf("%s_%s_%s_W%02d_%04d.%s",
		strings.ToUpper(corpus), tag, SanitizeName(category), workerID, index, strings.TrimPrefix(format, "."))
}

// SanitizeName turns a category label into a file-name friendly token
func SanitizeName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			if upper {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upper = false
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	if b.Len() == 0 {
		return "Document"
	}
	return b.String()
}

// ParseDocumentFileName reverses DocumentFileName. ok is false for names it
// did not produce.
func ParseDocumentFileName(name string) (corpus, phase, category string, ok bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) != 5 || !strings.HasPrefix(parts[3], "W") {
		return "", "", "", false
	}
	switch parts[1] {
	case "POS":
		phase = "positive"
	case "NEG":
		phase = "negative"
	default:
		return "", "", "", false
	}
	return strings.ToLower(parts[0]), phase, parts[2], true
}
