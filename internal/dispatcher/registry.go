package dispatcher

import (
	"sort"
	"sync"

	"github.com/dshills/meshstorm/internal/operator"
)

// Registry manages operator registration by exact dotted name.
type Registry struct {
	mu  sync.RWMutex
	ops map[string][]operator.Operator // name -> operators (sorted by priority)
}

// NewRegistry creates a new operator registry.
func NewRegistry() *Registry {
	return &Registry{
		ops: make(map[string][]operator.Operator),
	}
}

// Register adds an operator for a dotted name.
// Multiple operators can be registered for the same name; they are sorted
// by priority.
func (r *Registry) Register(name string, op operator.Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ops := r.ops[name]
	ops = append(ops, op)

	// Sort by priority (descending)
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Priority() > ops[j].Priority()
	})

	r.ops[name] = ops
}

// Unregister removes all operators for a name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ops, name)
}

// Get returns the highest priority operator for a name.
// Returns nil if no operator is registered.
func (r *Registry) Get(name string) operator.Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := r.ops[name]
	if len(ops) == 0 {
		return nil
	}
	return ops[0]
}

// GetAll returns all operators for a name.
func (r *Registry) GetAll(name string) []operator.Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := r.ops[name]
	result := make([]operator.Operator, len(ops))
	copy(result, ops)
	return result
}

// Has returns true if an operator is registered for the name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops[name]) > 0
}

// List returns all registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered names.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}

// Clear removes all registered operators.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = make(map[string][]operator.Operator)
}
