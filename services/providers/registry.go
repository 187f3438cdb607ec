package providers

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when no client is registered for a kind
	ErrProviderNotFound = errors.New("provider not configured")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry maps provider kinds to constructed clients
type Registry struct {
	mu        sync.RWMutex
	providers map[Kind]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[Kind]Provider),
	}
}

// Register registers a provider instance under a kind
func (r *Registry) Register(kind Kind, provider Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}
	if kind.String() == "unknown" {
		return ErrUnsupportedProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[kind]; exists {
		return ErrProviderAlreadyRegistered
	}

	r.providers[kind] = provider
	return nil
}

// Get retrieves the provider registered for a kind
func (r *Registry) Get(kind Kind) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[kind]
	if !exists {
		return nil, ErrProviderNotFound
	}

	return provider, nil
}

// Kinds returns the registered kinds in declaration order
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.providers))
	for kind := range r.providers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	return kinds
}

// Names returns the registered provider tags
func (r *Registry) Names() []string {
	kinds := r.Kinds()
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = kind.String()
	}
	return names
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}
