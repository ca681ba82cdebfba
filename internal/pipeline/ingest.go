package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"go-batch-generator/internal/model"
)

// LoadActors reads reference actors from CSV, JSON or YAML seed files in parallel.
// The result keeps the order of paths.
func LoadActors(ctx context.Context, paths []string) ([]model.Actor, error) {
	results := make([][]model.Actor, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			actors, err := loadActorFile(p)
			if err != nil {
				return fmt.Errorf("load seed file %s: %w", p, err)
			}
			results[i] = actors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Actor
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func loadActorFile(path string) ([]model.Actor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var actors []model.Actor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		actors, err = ingestCSV(f)
	case ".json":
		err = json.NewDecoder(f).Decode(&actors)
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&actors)
		if err == io.EOF {
			err = nil
		}
	default:
		return nil, fmt.Errorf("unsupported seed file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	for i := range actors {
		actors[i].Kind = strings.ToLower(strings.TrimSpace(actors[i].Kind))
		if actors[i].ID == "" {
			actors[i].ID = fmt.Sprintf("%s-%s-%d", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), actors[i].Kind, i)
		}
	}
	return actors, nil
}

// ingestCSV maps id, kind and name columns onto actors; every other column becomes an attribute
func ingestCSV(r io.Reader) ([]model.Actor, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), `"`, ""))
	}

	var actors []model.Actor
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return actors, nil
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}

		a := model.Actor{}
		for i, h := range headers {
			if i >= len(record) {
				break
			}
			v := strings.TrimSpace(record[i])
			switch h {
			case "id":
				a.ID = v
			case "kind":
				a.Kind = v
			case "name":
				a.Name = v
			default:
				if v == "" {
					continue
				}
				if a.Attributes == nil {
					a.Attributes = make(map[string]string)
				}
				a.Attributes[h] = v
			}
		}
		actors = append(actors, a)
	}
}
