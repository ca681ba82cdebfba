package model

import "fmt"

// Phase is a logical category of a run, partitioned independently
type Phase string

const (
	PhasePositive Phase = "positive"
	PhaseNegative Phase = "negative"
)

// Phases lists the phases in the order a run processes them
var Phases = []Phase{PhasePositive, PhaseNegative}

// Valid reports whether p is one of the known phases
func (p Phase) Valid() bool {
	return p == PhasePositive || p == PhaseNegative
}

// Corpus labels the kind of documents a run produces ("phi" or "cui")
const (
	CorpusPHI = "phi"
	CorpusCUI = "cui"
)

// WorkItem is one unit of output identified by index and phase
type WorkItem struct {
	Index int   `json:"index"`
	Phase Phase `json:"phase"`
}

// Task is a contiguous index range [Start, End) owned by exactly one worker
type Task struct {
	ID        int            `json:"task_id"`
	Start     int            `json:"start"`
	End       int            `json:"end"`
	Phase     Phase          `json:"phase"`
	Seed      int64          `json:"seed"`
	Corpus    string         `json:"corpus,omitempty"`
	OutputDir string         `json:"output_dir,omitempty"`
	Formats   []string       `json:"formats,omitempty"`
	Pool      *ReferencePool `json:"pool,omitempty"`
}

// Len returns the number of items in the task's range
func (t Task) Len() int {
	return t.End - t.Start
}

// String renders the task range for logs
func (t Task) String() string {
	return fmt.Sprintf("%s#%d[%d,%d)", t.Phase, t.ID, t.Start, t.End)
}

// Artifact describes one produced document
type Artifact struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Category string `json:"category"`
}

// RunRequest is the input of a generation run
type RunRequest struct {
	RunID      string   `json:"run_id,omitempty"`
	Positive   int      `json:"positive" validate:"gte=0"`
	Negative   int      `json:"negative" validate:"gte=0"`
	Workers    int      `json:"workers" validate:"gte=1"`
	Seed       *int64   `json:"seed,omitempty"`
	Corpus     string   `json:"corpus" validate:"omitempty,oneof=phi cui"`
	Formats    []string `json:"formats,omitempty" validate:"dive,oneof=pdf docx xlsx eml pptx txt csv json md html"`
	OutputRoot string   `json:"output_root" validate:"required"`
}

// Total returns the number of items requested across both phases
func (r RunRequest) Total() int {
	return r.Positive + r.Negative
}

// Count returns the requested item count for a phase
func (r RunRequest) Count(p Phase) int {
	switch p {
	case PhasePositive:
		return r.Positive
	case PhaseNegative:
		return r.Negative
	}
	return 0
}
