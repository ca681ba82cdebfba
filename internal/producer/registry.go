// Package producer renders reference documents for the generation workers.
// Categories are registered per corpus and phase; the worker only sees the
// pipeline.DocumentProducer interface.
package producer

import (
	"errors"

	"github.com/ygrebnov/errorc"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/pkg/utils"
)

const Namespace = "producer"

var (
	ErrUnknownCorpus = errors.New(Namespace + ": unknown corpus")
	ErrNoCategories  = errors.New(Namespace + ": no category supports the selected formats")
	ErrEmptyPool     = errors.New(Namespace + ": reference pool has no actors of a required kind")
)

// Registry holds the categories a run may produce, after applying the format filter
type Registry struct {
	corpus     string
	categories map[model.Phase][]Category
}

// NewRegistry selects the corpus catalog and restricts each category to formats.
// An empty formats list keeps every format.
func NewRegistry(corpus string, formats []string) (*Registry, error) {
	if corpus == "" {
		corpus = model.CorpusPHI
	}
	phases, ok := catalog[corpus]
	if !ok {
		return nil, errorc.With(ErrUnknownCorpus, errorc.String("corpus", corpus))
	}

	allowed := make(map[string]bool, len(formats))
	for _, f := range formats {
		allowed[f] = true
	}

	r := &Registry{corpus: corpus, categories: make(map[model.Phase][]Category, len(phases))}
	for phase, cats := range phases {
		for _, c := range cats {
			if len(allowed) > 0 {
				var keep []string
				for _, f := range c.Formats {
					if allowed[f] {
						keep = append(keep, f)
					}
				}
				if len(keep) == 0 {
					continue
				}
				c.Formats = keep
			}
			r.categories[phase] = append(r.categories[phase], c)
		}
		if len(r.categories[phase]) == 0 {
			return nil, errorc.With(ErrNoCategories,
				errorc.String("corpus", corpus),
				errorc.String("phase", string(phase)),
			)
		}
	}
	return r, nil
}

func (r *Registry) Corpus() string {
	return r.corpus
}

// Categories returns the categories available to a phase
func (r *Registry) Categories(phase model.Phase) []Category {
	return r.categories[phase]
}

// Producer returns the document writer for one task
func (r *Registry) Producer(task model.Task) (*DocumentWriter, error) {
	dir, err := utils.NewOutputManager(task.OutputDir, false).PhaseDir(task.OutputDir, string(task.Phase))
	if err != nil {
		return nil, err
	}
	return &DocumentWriter{
		registry: r,
		dir:      dir,
		workerID: task.ID,
	}, nil
}

// NewFactory builds producers from the corpus and formats carried by each task,
// so the same factory serves in-process and subprocess workers
func NewFactory() pipeline.ProducerFactory {
	return func(task model.Task) (pipeline.DocumentProducer, error) {
		reg, err := NewRegistry(task.Corpus, task.Formats)
		if err != nil {
			return nil, err
		}
		w, err := reg.Producer(task)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}
