package pipeline

import (
	"context"
	"math/rand/v2"

	"go-batch-generator/internal/model"
)

// DocumentProducer turns one work item into an artifact.
// rng is owned by the calling worker and seeded per task and index.
type DocumentProducer interface {
	Produce(ctx context.Context, item model.WorkItem, pool *model.ReferencePool, rng *rand.Rand) (model.Artifact, error)
}

// ProducerFunc adapts a function to DocumentProducer
type ProducerFunc func(ctx context.Context, item model.WorkItem, pool *model.ReferencePool, rng *rand.Rand) (model.Artifact, error)

func (f ProducerFunc) Produce(ctx context.Context, item model.WorkItem, pool *model.ReferencePool, rng *rand.Rand) (model.Artifact, error) {
	return f(ctx, item, pool, rng)
}

// ProducerFactory builds the producer a worker uses for its task
type ProducerFactory func(task model.Task) (DocumentProducer, error)

// StaticProducer returns a factory that hands every task the same producer
func StaticProducer(p DocumentProducer) ProducerFactory {
	return func(model.Task) (DocumentProducer, error) { return p, nil }
}

// NewTaskRand creates an explicit RNG from a seed
func NewTaskRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

// NewItemRand creates the RNG of one item of a task. Every attempt at the
// item starts from the same state, so retries and failures elsewhere in the
// range never shift the draws of another index.
func NewItemRand(taskSeed int64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(taskSeed), 0x9e3779b97f4a7c15^(uint64(index)*0xbf58476d1ce4e5b9)))
}
