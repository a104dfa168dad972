package channels

import (
	"errors"
	"sync"

	"github.com/coccinelle-ai/channel-engine/models"
)

var (
	// ErrAdapterNotFound is returned when no adapter serves a channel
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrAdapterAlreadyRegistered is returned when trying to register a duplicate adapter
	ErrAdapterAlreadyRegistered = errors.New("adapter already registered")
)

// Registry is the capability registry: a mapping from ChannelKind to an
// adapter instance, built once at startup from validated configuration and
// injected into the orchestrator.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.ChannelKind]Adapter
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[models.ChannelKind]Adapter),
	}
}

// Register registers an adapter instance for its channel
func (r *Registry) Register(adapter Adapter) error {
	if adapter == nil {
		return errors.New("adapter cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kind := adapter.Kind()
	if !kind.Valid() {
		return errors.New("adapter kind is not a known channel")
	}
	if _, exists := r.adapters[kind]; exists {
		return ErrAdapterAlreadyRegistered
	}

	r.adapters[kind] = adapter
	return nil
}

// Get retrieves the adapter for a channel
func (r *Registry) Get(kind models.ChannelKind) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[kind]
	if !exists {
		return nil, ErrAdapterNotFound
	}
	return adapter, nil
}

// Has reports whether an adapter is registered for the channel
func (r *Registry) Has(kind models.ChannelKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.adapters[kind]
	return exists
}

// Kinds returns the registered channels in stable lexical order
func (r *Registry) Kinds() []models.ChannelKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]models.ChannelKind, 0, len(r.adapters))
	for _, kind := range models.AllChannels() {
		if _, exists := r.adapters[kind]; exists {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Count returns the number of registered adapters
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.adapters)
}
