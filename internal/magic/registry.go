package magic

import (
	"context"
	"errors"
	"sync"

	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/record"
)

// Source fetches metadata for identifiers of one platform.
type Source interface {
	// Platform returns the platform the source serves.
	Platform() identifier.Platform

	// Fetch returns the normalized record for a sanitized identifier.
	Fetch(ctx context.Context, id string) (record.Record, error)
}

// Registry holds the sources keyed by platform, safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[identifier.Platform]Source
	ordered []Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[identifier.Platform]Source)}
}

// Register adds a source. It fails for nil sources, unknown platforms and
// platforms that already have a source.
func (r *Registry) Register(s Source) error {
	if s == nil {
		return errors.New("source cannot be nil")
	}
	p := s.Platform()
	if _, err := identifier.ParsePlatform(string(p)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[p]; exists {
		return errors.New("source already registered: " + string(p))
	}
	r.sources[p] = s
	r.ordered = append(r.ordered, s)
	return nil
}

// Get returns the source for a platform.
func (r *Registry) Get(p identifier.Platform) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[p]
	return s, ok
}

// Platforms returns the registered platforms in registration order.
func (r *Registry) Platforms() []identifier.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]identifier.Platform, 0, len(r.ordered))
	for _, s := range r.ordered {
		out = append(out, s.Platform())
	}
	return out
}
