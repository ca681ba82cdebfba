// Package inventory summarizes a directory of generated documents: counts
// and sizes per format, positive and negative totals and document categories.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go-batch-generator/pkg/utils"
)

// MaxSampleFiles bounds the files kept for the directory tree
const MaxSampleFiles = 50

var ErrNotDirectory = errors.New("path must be a directory")

// FormatStats is the share of one format
type FormatStats struct {
	Count int
	Size  int64
}

// Report is the result of Scan
type Report struct {
	Root       string
	TotalFiles int
	TotalSize  int64
	Positive   int
	Negative   int
	ByFormat   map[string]*FormatStats
	ByCategory map[string]int
	// Sample holds the first MaxSampleFiles paths, relative to Root, in walk order.
	Sample []string
}

// AverageSize returns the mean file size in bytes
func (r *Report) AverageSize() float64 {
	if r.TotalFiles == 0 {
		return 0
	}
	return float64(r.TotalSize) / float64(r.TotalFiles)
}

// Formats returns the format names in lexical order
func (r *Report) Formats() []string {
	keys := make([]string, 0, len(r.ByFormat))
	for k := range r.ByFormat {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Categories returns category names, most frequent first
func (r *Report) Categories() []string {
	keys := make([]string, 0, len(r.ByCategory))
	for k := range r.ByCategory {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if d := r.ByCategory[b] - r.ByCategory[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return keys
}

// Scan walks root and tallies every regular file below it
func Scan(root string) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	om := utils.NewOutputManager(root, false)
	r := &Report{
		Root:       root,
		ByFormat:   map[string]*FormatStats{},
		ByCategory: map[string]int{},
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		size, err := om.GetFileSize(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		r.add(om.GetFileType(path), rel, size)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return r, nil
}

func (r *Report) add(format, rel string, size int64) {
	r.TotalFiles++
	r.TotalSize += size

	stats, ok := r.ByFormat[format]
	if !ok {
		stats = &FormatStats{}
		r.ByFormat[format] = stats
	}
	stats.Count++
	stats.Size += size

	_, phase, category, named := utils.ParseDocumentFileName(rel)
	if !named {
		phase = phaseFromDir(rel)
	}
	switch phase {
	case "positive":
		r.Positive++
	case "negative":
		r.Negative++
	}
	if named {
		r.ByCategory[category]++
	}

	if len(r.Sample) < MaxSampleFiles {
		r.Sample = append(r.Sample, rel)
	}
}

// phaseFromDir looks for a phase directory in the path of a file not named by the generator
func phaseFromDir(rel string) string {
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part == "positive" || part == "negative" {
			return part
		}
	}
	return ""
}
