package param

import (
	"fmt"
	"sync"
)

// Registry manages the engine's parameters
type Registry struct {
	params map[uint32]*Parameter
	byName map[string]uint32
	order  []uint32 // Maintain order for indexed access
	mu     sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		byName: make(map[string]uint32),
		order:  make([]uint32, 0),
	}
}

// Add registers parameters. IDs and short names must be unique.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			return fmt.Errorf("parameter id %d already registered", p.ID)
		}
		key := fold(p.ShortName)
		if _, exists := r.byName[key]; exists {
			return fmt.Errorf("parameter name %q already registered", p.ShortName)
		}
		r.params[p.ID] = p
		r.byName[key] = p.ID
		r.order = append(r.order, p.ID)
	}

	return nil
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// Lookup retrieves a parameter by short name, ignoring case and separators
func (r *Registry) Lookup(name string) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[fold(name)]
	if !ok {
		return nil
	}
	return r.params[id]
}

// GetByIndex retrieves a parameter by index
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}

	return r.params[r.order[index]]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// All returns all parameters in order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}

	return result
}
