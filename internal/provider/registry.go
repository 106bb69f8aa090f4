package provider

import (
	"fmt"
	"sync"
)

// Registry is the static, thread-safe enumeration of every provider the
// process knows about. Enumeration order is registration order, which the
// post-search stage depends on for deterministic "first non-empty wins"
// behavior.
type Registry struct {
	mu    sync.RWMutex
	order []ID
	store map[ID]Provider
}

// NewRegistry builds an empty Registry, optionally pre-sizing its storage.
func NewRegistry(capacity ...int) *Registry {
	cap0 := 0
	if len(capacity) > 0 {
		cap0 = capacity[0]
	}
	return &Registry{
		order: make([]ID, 0, cap0),
		store: make(map[ID]Provider, cap0),
	}
}

// Register adds providers in the given order. Registering an id twice
// panics: the registry is built once at startup from a fixed list, so a
// duplicate means a programming mistake, not a runtime condition to
// tolerate silently.
func (r *Registry) Register(providers ...Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range providers {
		id := p.ID()
		if _, exists := r.store[id]; exists {
			panic(fmt.Sprintf("provider: duplicate registration for %q", id))
		}
		r.store[id] = p
		r.order = append(r.order, id)
	}
}

// Find looks up a provider by id.
func (r *Registry) Find(id ID) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.store[id]
	return p, ok
}

// All returns every registered provider in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.store[id])
	}
	return out
}

// WithCapability returns the registered providers that declare flag, in
// registration order.
func (r *Registry) WithCapability(flag Capability) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		p := r.store[id]
		if p.Capabilities().Has(flag) {
			out = append(out, p)
		}
	}
	return out
}

// Size returns the number of registered providers.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
