package registry

import (
	"fmt"
	"regexp"
	"sync"

	"flapboard/pkg/generator"
	"flapboard/pkg/model"
)

// RegisteredGenerator pairs a registration with its capability.
type RegisteredGenerator struct {
	Registration model.GeneratorRegistration
	Generator    generator.ContentGenerator

	pattern *regexp.Regexp
}

// MatchesEvent reports whether the registration's event pattern
// matches the given key. Registrations without a pattern never match.
func (r *RegisteredGenerator) MatchesEvent(key string) bool {
	if r.pattern == nil || key == "" {
		return false
	}
	return r.pattern.MatchString(key)
}

// Registry is an in-memory catalog of registered content sources.
// Construct explicitly and inject by reference; Reset exists for tests.
type Registry struct {
	mu      sync.RWMutex
	entries []*RegisteredGenerator
	byID    map[string]*RegisteredGenerator
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byID: make(map[string]*RegisteredGenerator),
	}
}

// Register stores a generator under its registration. A duplicate id is
// a configuration error and leaves the original untouched.
func (r *Registry) Register(reg model.GeneratorRegistration, gen generator.ContentGenerator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg.ID == "" {
		return fmt.Errorf("generator registration requires an id")
	}
	if _, exists := r.byID[reg.ID]; exists {
		return fmt.Errorf("generator %q already registered", reg.ID)
	}

	entry := &RegisteredGenerator{Registration: reg, Generator: gen}
	if reg.EventPattern != "" {
		p, err := regexp.Compile(reg.EventPattern)
		if err != nil {
			return fmt.Errorf("generator %q has invalid event pattern %q: %w", reg.ID, reg.EventPattern, err)
		}
		entry.pattern = p
	}

	r.entries = append(r.entries, entry)
	r.byID[reg.ID] = entry
	return nil
}

// Unregister removes a generator and reports whether it existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return false
	}
	delete(r.byID, id)
	for i, e := range r.entries {
		if e.Registration.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	return true
}

// GetByID returns the generator with the given id, or nil.
func (r *Registry) GetByID(id string) *RegisteredGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// GetAll returns all registrations in registration order.
func (r *Registry) GetAll() []*RegisteredGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RegisteredGenerator, len(r.entries))
	copy(out, r.entries)
	return out
}

// GetByPriority returns registrations of the given tier in
// registration order.
func (r *Registry) GetByPriority(tier model.PriorityTier) []*RegisteredGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*RegisteredGenerator
	for _, e := range r.entries {
		if e.Registration.Priority == tier {
			out = append(out, e)
		}
	}
	return out
}

// GetByEventPattern returns every registration whose pattern matches
// the key, in registration order. Multiple matches are legal.
func (r *Registry) GetByEventPattern(key string) []*RegisteredGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*RegisteredGenerator
	for _, e := range r.entries {
		if e.MatchesEvent(key) {
			out = append(out, e)
		}
	}
	return out
}

// Reset removes all registrations.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.byID = make(map[string]*RegisteredGenerator)
}
