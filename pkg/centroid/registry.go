package centroid

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry holds the predefined centroid definitions, loaded once at
// startup and never mutated thereafter (§9 "promote class-level mutable
// cache to immutable value built by a builder method" — here the builder
// is LoadDefinitions + NewRegistry, and the "not built yet" state is
// simply never observable since both run at process start).
type Registry struct {
	definitions []Definition
}

// NewRegistry defensively copies defs, mirroring the teacher's
// `ChainRegistry`'s "copy on construction" discipline.
func NewRegistry(defs []Definition) *Registry {
	copied := make([]Definition, len(defs))
	copy(copied, defs)
	return &Registry{definitions: copied}
}

// LoadDefinitions reads centroids.yaml into a slice of Definition.
func LoadDefinitions(path string) ([]Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("centroid: read %s: %w", path, err)
	}
	var doc struct {
		Centroids []Definition `yaml:"centroids"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("centroid: parse %s: %w", path, err)
	}
	return doc.Centroids, nil
}

// Len reports how many centroids are registered.
func (r *Registry) Len() int { return len(r.definitions) }

// TopCandidates returns the n highest-composite candidates against sig,
// with component breakdowns, for the LLM macro-link prompt (§4.7).
func (r *Registry) TopCandidates(sig EventSignature, n int) []Candidate {
	out := make([]Candidate, 0, len(r.definitions))
	for _, def := range r.definitions {
		out = append(out, Score(def, sig))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Composite > out[j].Composite })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Best returns the single highest-composite candidate, or the zero
// Candidate with ok=false if the registry is empty.
func (r *Registry) Best(sig EventSignature) (Candidate, bool) {
	top := r.TopCandidates(sig, 1)
	if len(top) == 0 {
		return Candidate{}, false
	}
	return top[0], true
}
