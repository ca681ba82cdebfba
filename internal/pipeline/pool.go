package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"go-batch-generator/internal/model"
)

// PoolSpec sizes the reference pool
type PoolSpec struct {
	// Patients defaults to one per positive item, capped at MaxAutoPatients
	Patients   int      `mapstructure:"patients" validate:"gte=0"`
	Providers  int      `mapstructure:"providers" validate:"gte=0"`
	Facilities int      `mapstructure:"facilities" validate:"gte=0"`
	SeedFiles  []string `mapstructure:"seed_files"`
}

const MaxAutoPatients = 10000

// DefaultPoolSpec matches the sizes the generator has always used
func DefaultPoolSpec() PoolSpec {
	return PoolSpec{Providers: 20, Facilities: 10}
}

// PoolBuilder builds the read-only reference pool once per run, before any worker starts
type PoolBuilder struct {
	Spec   PoolSpec
	Logger zerolog.Logger
}

// Build loads seed actors, then synthesizes records until every kind reaches its size
func (b *PoolBuilder) Build(ctx context.Context, seed int64, positive int) (*model.ReferencePool, error) {
	pool := &model.ReferencePool{}

	if len(b.Spec.SeedFiles) > 0 {
		actors, err := LoadActors(ctx, b.Spec.SeedFiles)
		if err != nil {
			return nil, err
		}
		for _, a := range actors {
			switch a.Kind {
			case model.ActorPatient:
				pool.Patients = append(pool.Patients, a)
			case model.ActorProvider:
				pool.Providers = append(pool.Providers, a)
			case model.ActorFacility:
				pool.Facilities = append(pool.Facilities, a)
			default:
				b.Logger.Warn().Str("id", a.ID).Str("kind", a.Kind).Msg("skipping seed actor of unknown kind")
			}
		}
	}

	patients := b.Spec.Patients
	if patients == 0 {
		patients = positive
		if patients > MaxAutoPatients {
			patients = MaxAutoPatients
		}
		if patients < 1 {
			patients = 1
		}
	}

	rng := NewTaskRand(seed)
	pool.Patients = fill(pool.Patients, patients, func(i int) model.Actor { return synthPatient(rng, i) })
	pool.Providers = fill(pool.Providers, b.Spec.Providers, func(i int) model.Actor { return synthProvider(rng, i) })
	pool.Facilities = fill(pool.Facilities, b.Spec.Facilities, func(i int) model.Actor { return synthFacility(rng, i) })

	b.Logger.Info().
		Int("patients", len(pool.Patients)).
		Int("providers", len(pool.Providers)).
		Int("facilities", len(pool.Facilities)).
		Msg("reference pool prepared")

	return pool, nil
}

func fill(actors []model.Actor, want int, gen func(i int) model.Actor) []model.Actor {
	for i := len(actors); i < want; i++ {
		actors = append(actors, gen(i))
	}
	return actors
}

var (
	firstNames    = []string{"Avery", "Jordan", "Morgan", "Riley", "Casey", "Taylor", "Quinn", "Harper", "Rowan", "Emerson", "Sage", "Dakota"}
	lastNames     = []string{"Nguyen", "Okafor", "Lindqvist", "Haddad", "Moreno", "Kowalski", "Patel", "Brennan", "Sato", "Adeyemi", "Fischer", "Alvarez"}
	specialties   = []string{"Internal Medicine", "Cardiology", "Pediatrics", "Oncology", "Neurology", "Family Medicine", "Endocrinology"}
	cities        = []string{"Springfield", "Riverton", "Fairview", "Lakeside", "Georgetown", "Milford", "Ashland"}
	states        = []string{"OR", "OH", "TX", "NC", "MN", "AZ", "VA"}
	facilityKinds = []string{"Medical Center", "Community Clinic", "Regional Hospital", "Health Partners", "Family Practice"}
)

func pick(rng *rand.Rand, xs []string) string {
	return xs[rng.IntN(len(xs))]
}

func personName(rng *rand.Rand) string {
	return pick(rng, firstNames) + " " + pick(rng, lastNames)
}

func synthPatient(rng *rand.Rand, i int) model.Actor {
	return model.Actor{
		ID:   fmt.Sprintf("patient-%05d", i),
		Kind: model.ActorPatient,
		Name: personName(rng),
		Attributes: map[string]string{
			"mrn": fmt.Sprintf("MRN%08d", rng.IntN(100000000)),
			"dob": fmt.Sprintf("%04d-%02d-%02d", 1940+rng.IntN(65), 1+rng.IntN(12), 1+rng.IntN(28)),
		},
	}
}

func synthProvider(rng *rand.Rand, i int) model.Actor {
	return model.Actor{
		ID:   fmt.Sprintf("provider-%03d", i),
		Kind: model.ActorProvider,
		Name: "Dr. " + personName(rng),
		Attributes: map[string]string{
			"npi":       fmt.Sprintf("%010d", 1000000000+rng.IntN(900000000)),
			"specialty": pick(rng, specialties),
		},
	}
}

func synthFacility(rng *rand.Rand, i int) model.Actor {
	city := pick(rng, cities)
	return model.Actor{
		ID:   fmt.Sprintf("facility-%03d", i),
		Kind: model.ActorFacility,
		Name: city + " " + pick(rng, facilityKinds),
		Attributes: map[string]string{
			"city":  city,
			"state": pick(rng, states),
			"phone": fmt.Sprintf("(%03d) 555-%04d", 200+rng.IntN(700), rng.IntN(10000)),
		},
	}
}
