package producer

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/pkg/utils"
)

// DocumentWriter renders one document per item into the task's phase directory
type DocumentWriter struct {
	registry *Registry
	dir      string
	workerID int
}

type documentData struct {
	Title          string
	Reference      string
	Date           string
	Classification string
	Patient        model.Actor
	Provider       model.Actor
	Peer           model.Actor
	Facility       model.Actor
	Weeks          int
	Hour           int
	Value          int
}

func (d *DocumentWriter) Produce(_ context.Context, item model.WorkItem, pool *model.ReferencePool, rng *rand.Rand) (model.Artifact, error) {
	cats := d.registry.Categories(item.Phase)
	if len(cats) == 0 {
		return model.Artifact{}, pipeline.Permanent(fmt.Errorf("%w: phase %s", ErrNoCategories, item.Phase))
	}
	if pool == nil || len(pool.Providers) == 0 || len(pool.Facilities) == 0 {
		return model.Artifact{}, pipeline.Permanent(ErrEmptyPool)
	}

	cat := cats[rng.IntN(len(cats))]
	format := cat.Formats[rng.IntN(len(cat.Formats))]

	data := documentData{
		Title:          cat.Name,
		Reference:      fmt.Sprintf("%s-%06d", strings.ToUpper(d.registry.corpus), rng.IntN(1000000)),
		Date:           fmt.Sprintf("2024-%02d-%02d", 1+rng.IntN(12), 1+rng.IntN(28)),
		Classification: classification(d.registry.corpus, item.Phase),
		Provider:       pool.Providers[rng.IntN(len(pool.Providers))],
		Peer:           pool.Providers[rng.IntN(len(pool.Providers))],
		Facility:       pool.Facilities[rng.IntN(len(pool.Facilities))],
		Weeks:          2 + rng.IntN(10),
		Hour:           7 + rng.IntN(4),
		Value:          70 + rng.IntN(90),
	}
	if cat.NeedsPatient {
		if len(pool.Patients) == 0 {
			return model.Artifact{}, pipeline.Permanent(ErrEmptyPool)
		}
		data.Patient = pool.Patients[item.Index%len(pool.Patients)]
	}

	var buf bytes.Buffer
	if err := cat.tmpl.Execute(&buf, data); err != nil {
		return model.Artifact{}, pipeline.Permanent(fmt.Errorf("render %s: %w", cat.Name, err))
	}

	name := utils.DocumentFileName(d.registry.corpus, string(item.Phase), cat.Name, d.workerID, item.Index, format)
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return model.Artifact{}, fmt.Errorf("write %s: %w", name, err)
	}

	return model.Artifact{Path: path, Format: format, Category: cat.Name}, nil
}

func classification(corpus string, phase model.Phase) string {
	if phase == model.PhaseNegative {
		return "UNCLASSIFIED"
	}
	if corpus == model.CorpusCUI {
		return "CUI"
	}
	return "CONTAINS PHI"
}
