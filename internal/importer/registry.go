package importer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSource is returned when a slug does not name a supported source.
var ErrUnknownSource = errors.New("unknown import source")

// Registry holds the supported import sources in presentation order.
type Registry struct {
	sources []Source
	bySlug  map[string]int
}

func NewRegistry(sources ...Source) (*Registry, error) {
	registry := &Registry{
		sources: make([]Source, 0, len(sources)),
		bySlug:  make(map[string]int, len(sources)),
	}
	for _, source := range sources {
		if err := source.Validate(); err != nil {
			return nil, err
		}
		slug := strings.ToLower(strings.TrimSpace(source.Slug))
		if _, exists := registry.bySlug[slug]; exists {
			return nil, fmt.Errorf("duplicate source slug %q", slug)
		}
		registry.bySlug[slug] = len(registry.sources)
		registry.sources = append(registry.sources, source)
	}
	return registry, nil
}

// DefaultRegistry returns the registry of products Searchlight ships
// importers for.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(
		SEOToolkit(),
		MetaPilot(),
		PageRanger(),
		ApexSEO(),
	)
	if err != nil {
		// The built-in sources are validated by tests; a bad one is a
		// programming error.
		panic(err)
	}
	return registry
}

// All returns the sources in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// BySlug finds a source by its slug, case-insensitively.
func (r *Registry) BySlug(slug string) (Source, error) {
	normalized := strings.ToLower(strings.TrimSpace(slug))
	index, ok := r.bySlug[normalized]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownSource, slug)
	}
	return r.sources[index], nil
}
