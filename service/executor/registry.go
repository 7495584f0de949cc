package executor

import (
	"sync"

	"github.com/openclaw/gating/model"
)

// Registry maps approval kinds to their executors.
type Registry struct {
	services map[model.Kind]Service
	mux      sync.RWMutex
}

// NewRegistry creates a registry pre-populated with the given executors.
func NewRegistry(services ...Service) *Registry {
	ret := &Registry{services: make(map[model.Kind]Service)}
	ret.Register(services...)
	return ret
}

// Register adds executors to the registry; a later registration for the
// same kind replaces the earlier one.
func (r *Registry) Register(services ...Service) {
	r.mux.Lock()
	defer r.mux.Unlock()
	for _, service := range services {
		if service != nil {
			r.services[service.Kind()] = service
		}
	}
}

// Lookup returns the executor for a kind, or nil when unsupported.
func (r *Registry) Lookup(kind model.Kind) Service {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.services[kind]
}

// Kinds returns the registered kinds.
func (r *Registry) Kinds() []model.Kind {
	r.mux.RLock()
	defer r.mux.RUnlock()
	kinds := make([]model.Kind, 0, len(r.services))
	for kind := range r.services {
		kinds = append(kinds, kind)
	}
	return kinds
}
