package pipeline

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-batch-generator/internal/model"
)

func TestPoolBuilder_DefaultSizes(t *testing.T) {
	b := &PoolBuilder{Spec: DefaultPoolSpec(), Logger: zerolog.Nop()}

	pool, err := b.Build(context.Background(), 1, 25)
	require.NoError(t, err)
	assert.Len(t, pool.Patients, 25, "one patient per positive item")
	assert.Len(t, pool.Providers, 20)
	assert.Len(t, pool.Facilities, 10)

	for _, p := range pool.Patients {
		assert.Equal(t, model.ActorPatient, p.Kind)
		assert.NotEmpty(t, p.Attributes["mrn"])
	}
	for _, p := range pool.Providers {
		assert.NotEmpty(t, p.Attributes["npi"])
	}
}

func TestPoolBuilder_PatientBounds(t *testing.T) {
	b := &PoolBuilder{Spec: DefaultPoolSpec(), Logger: zerolog.Nop()}

	pool, err := b.Build(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, pool.Patients, 1)

	pool, err = b.Build(context.Background(), 1, MaxAutoPatients+500)
	require.NoError(t, err)
	assert.Len(t, pool.Patients, MaxAutoPatients)

	b.Spec.Patients = 3
	pool, err = b.Build(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Len(t, pool.Patients, 3)
}

func TestPoolBuilder_Deterministic(t *testing.T) {
	b := &PoolBuilder{Spec: DefaultPoolSpec(), Logger: zerolog.Nop()}

	a, err := b.Build(context.Background(), 77, 10)
	require.NoError(t, err)
	c, err := b.Build(context.Background(), 77, 10)
	require.NoError(t, err)
	assert.Equal(t, a, c)

	d, err := b.Build(context.Background(), 78, 10)
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestPoolBuilder_SeedFilesComeFirst(t *testing.T) {
	dir := t.TempDir()
	seed := writeFile(t, dir, "seed.csv", `id,kind,name
pt-a,patient,Known Patient
pr-a,provider,Dr. Known
x-1,vendor,Unknown Kind
`)
	b := &PoolBuilder{
		Spec:   PoolSpec{Patients: 2, Providers: 2, Facilities: 1, SeedFiles: []string{seed}},
		Logger: zerolog.Nop(),
	}

	pool, err := b.Build(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Len(t, pool.Patients, 2)
	assert.Equal(t, "pt-a", pool.Patients[0].ID)
	assert.Equal(t, "patient-00001", pool.Patients[1].ID)
	require.Len(t, pool.Providers, 2)
	assert.Equal(t, "pr-a", pool.Providers[0].ID)
	assert.Len(t, pool.Facilities, 1)
	assert.Equal(t, 5, pool.Size(), "unknown kinds are skipped")
}

func TestReferencePool_CloneIsDeep(t *testing.T) {
	b := &PoolBuilder{Spec: DefaultPoolSpec(), Logger: zerolog.Nop()}
	pool, err := b.Build(context.Background(), 9, 2)
	require.NoError(t, err)

	clone := pool.Clone()
	require.Equal(t, pool, clone)

	clone.Patients[0].Name = "changed"
	clone.Patients[0].Attributes["mrn"] = "changed"
	assert.NotEqual(t, "changed", pool.Patients[0].Name)
	assert.NotEqual(t, "changed", pool.Patients[0].Attributes["mrn"])
}
