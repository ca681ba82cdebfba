package model

// Actor is a read-only reference record (patient, provider, facility)
type Actor struct {
	ID         string            `json:"id" yaml:"id"`
	Kind       string            `json:"kind" yaml:"kind"`
	Name       string            `json:"name" yaml:"name"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Actor kinds
const (
	ActorPatient  = "patient"
	ActorProvider = "provider"
	ActorFacility = "facility"
)

// ReferencePool is shared supporting data handed to every worker by value
type ReferencePool struct {
	Patients   []Actor `json:"patients"`
	Providers  []Actor `json:"providers"`
	Facilities []Actor `json:"facilities"`
}

// Size returns the total number of actors in the pool
func (p *ReferencePool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Patients) + len(p.Providers) + len(p.Facilities)
}

// Clone returns a deep copy so a worker never shares backing arrays with another
func (p *ReferencePool) Clone() *ReferencePool {
	if p == nil {
		return nil
	}
	return &ReferencePool{
		Patients:   cloneActors(p.Patients),
		Providers:  cloneActors(p.Providers),
		Facilities: cloneActors(p.Facilities),
	}
}

func cloneActors(in []Actor) []Actor {
	if in == nil {
		return nil
	}
	out := make([]Actor, len(in))
	for i, a := range in {
		out[i] = a
		if a.Attributes != nil {
			attrs := make(map[string]string, len(a.Attributes))
			for k, v := range a.Attributes {
				attrs[k] = v
			}
			out[i].Attributes = attrs
		}
	}
	return out
}
