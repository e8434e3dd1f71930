// Package operator provides the operator interface and types for
// invocation dispatch.
package operator

import "github.com/dshills/meshstorm/internal/operator/opctx"

// Operator processes a specific invocation or set of invocations.
type Operator interface {
	// Invoke executes the request and returns a result.
	Invoke(req Request, ctx *opctx.Context) Result

	// CanInvoke returns true if this operator can process the request.
	CanInvoke(name string) bool

	// Priority returns the operator priority (higher = checked first).
	Priority() int
}

// Func is a function adapter for the Operator interface.
type Func struct {
	fn   func(req Request, ctx *opctx.Context) Result
	prio int
}

// NewFunc creates a Func from a function.
func NewFunc(fn func(req Request, ctx *opctx.Context) Result) *Func {
	return &Func{fn: fn, prio: 0}
}

// NewFuncWithPriority creates a Func with a specified priority.
func NewFuncWithPriority(fn func(req Request, ctx *opctx.Context) Result, priority int) *Func {
	return &Func{fn: fn, prio: priority}
}

// Invoke implements Operator.Invoke.
func (f *Func) Invoke(req Request, ctx *opctx.Context) Result {
	if f.fn == nil {
		return Errorf("operator function is nil")
	}
	return f.fn(req, ctx)
}

// CanInvoke implements Operator.CanInvoke.
// Func always returns true; caller must ensure correct routing.
func (f *Func) CanInvoke(name string) bool {
	return true
}

// Priority implements Operator.Priority.
func (f *Func) Priority() int {
	return f.prio
}

// Simple wraps a function with an explicit operator name.
type Simple struct {
	// IDName is the full dotted name this operator processes.
	IDName string

	// Fn is the operator function.
	Fn func(req Request, ctx *opctx.Context) Result

	// Prio is the operator priority.
	Prio int
}

// Invoke implements Operator.Invoke.
func (s *Simple) Invoke(req Request, ctx *opctx.Context) Result {
	if s.Fn == nil {
		return Errorf("operator function is nil")
	}
	return s.Fn(req, ctx)
}

// CanInvoke implements Operator.CanInvoke.
func (s *Simple) CanInvoke(name string) bool {
	return name == s.IDName
}

// Priority implements Operator.Priority.
func (s *Simple) Priority() int {
	return s.Prio
}

// CategoryOperator handles all invocations within a category.
// A category is the prefix before the first dot (e.g., "mesh" in
// "mesh.inset").
type CategoryOperator interface {
	// InvokeOp handles an invocation within this category.
	InvokeOp(req Request, ctx *opctx.Context) Result

	// CanInvoke returns true if this operator can process the request.
	CanInvoke(name string) bool

	// Category returns the category prefix (e.g., "mesh", "object").
	Category() string
}

// categoryAdapter adapts CategoryOperator to the Operator interface.
type categoryAdapter struct {
	op CategoryOperator
}

// NewCategoryAdapter creates an Operator from a CategoryOperator.
func NewCategoryAdapter(op CategoryOperator) Operator {
	return &categoryAdapter{op: op}
}

func (a *categoryAdapter) Invoke(req Request, ctx *opctx.Context) Result {
	return a.op.InvokeOp(req, ctx)
}

func (a *categoryAdapter) CanInvoke(name string) bool {
	return a.op.CanInvoke(name)
}

func (a *categoryAdapter) Priority() int {
	return 0
}

// BaseCategory provides a base implementation for category operators.
type BaseCategory struct {
	category string
	ops      map[string]func(req Request, ctx *opctx.Context) Result
}

// NewBaseCategory creates a new BaseCategory.
func NewBaseCategory(category string) *BaseCategory {
	return &BaseCategory{
		category: category,
		ops:      make(map[string]func(req Request, ctx *opctx.Context) Result),
	}
}

// Register registers an operator function for a full dotted name.
func (b *BaseCategory) Register(name string, fn func(req Request, ctx *opctx.Context) Result) {
	b.ops[name] = fn
}

// Names returns the registered operator names in no particular order.
func (b *BaseCategory) Names() []string {
	names := make([]string, 0, len(b.ops))
	for name := range b.ops {
		names = append(names, name)
	}
	return names
}

// Category implements CategoryOperator.Category.
func (b *BaseCategory) Category() string {
	return b.category
}

// CanInvoke implements CategoryOperator.CanInvoke.
func (b *BaseCategory) CanInvoke(name string) bool {
	_, ok := b.ops[name]
	return ok
}

// InvokeOp implements CategoryOperator.InvokeOp.
func (b *BaseCategory) InvokeOp(req Request, ctx *opctx.Context) Result {
	fn, ok := b.ops[req.Name]
	if !ok {
		return Errorf("unknown operator in category %s: %s", b.category, req.Name)
	}
	return fn(req, ctx)
}
