package dispatcher

import (
	"strings"
	"sync"

	"github.com/dshills/meshstorm/internal/operator"
)

// Router routes invocations to operators using category prefixes.
// It provides O(1) lookup for dotted names like "mesh.inset".
type Router struct {
	mu sync.RWMutex

	// Category operators (e.g., "mesh" handles "mesh.*")
	categories map[string]operator.CategoryOperator

	// Fallback operator for unmatched invocations
	fallback operator.Operator
}

// NewRouter creates a new invocation router.
func NewRouter() *Router {
	return &Router{
		categories: make(map[string]operator.CategoryOperator),
	}
}

// RegisterCategory registers an operator for all invocations in a category.
// The category is the prefix before the first dot (e.g., "mesh" in
// "mesh.inset").
func (r *Router) RegisterCategory(category string, op operator.CategoryOperator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category] = op
}

// UnregisterCategory removes a category operator.
func (r *Router) UnregisterCategory(category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.categories, category)
}

// SetFallback sets the fallback operator for unmatched invocations.
func (r *Router) SetFallback(op operator.Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = op
}

// Route finds the appropriate operator for an invocation.
// Returns nil if no operator is found.
func (r *Router) Route(name string) operator.Operator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category := extractCategory(name)
	if category != "" {
		if op, ok := r.categories[category]; ok {
			if op.CanInvoke(name) {
				return operator.NewCategoryAdapter(op)
			}
		}
	}

	return r.fallback
}

// GetCategoryOperator returns the operator for a category.
// Returns nil if no operator is registered.
func (r *Router) GetCategoryOperator(category string) operator.CategoryOperator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.categories[category]
}

// HasCategory returns true if an operator is registered for the category.
func (r *Router) HasCategory(category string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.categories[category]
	return ok
}

// Categories returns all registered category names.
func (r *Router) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.categories))
	for name := range r.categories {
		names = append(names, name)
	}
	return names
}

// CanRoute returns true if the router can handle the invocation.
func (r *Router) CanRoute(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category := extractCategory(name)
	if category != "" {
		if op, ok := r.categories[category]; ok {
			return op.CanInvoke(name)
		}
	}

	return r.fallback != nil
}

// extractCategory extracts the category from "category.op" format.
// Returns empty string if no separator is found.
func extractCategory(name string) string {
	idx := strings.Index(name, ".")
	if idx < 0 {
		return ""
	}
	return name[:idx]
}
