package persistence

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultStore is the namespace used when none is configured.
const DefaultStore = "default"

// Registry maps namespace names to repositories.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Repository
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Repository)}
}

// Register adds repo under name. An empty name registers the default store.
func (r *Registry) Register(name string, repo Repository) error {
	if name == "" {
		name = DefaultStore
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateStore, name)
	}
	r.stores[name] = repo
	return nil
}

// Get returns the repository for name. An empty name selects the default store.
func (r *Registry) Get(name string) (Repository, error) {
	if name == "" {
		name = DefaultStore
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	repo, ok := r.stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, name)
	}
	return repo, nil
}

// Names returns the registered namespace names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
