// Package dispatcher routes operator invocations and coordinates execution.
package dispatcher

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/operator"
	"github.com/dshills/meshstorm/internal/operator/opctx"
)

// MeshSource provides the current edit-mesh for invocations.
// It returns nil when no mesh is being edited.
type MeshSource interface {
	CurrentEditMesh() *mesh.Mesh
}

// Dispatcher routes invocations to operators and coordinates execution.
type Dispatcher struct {
	mu sync.RWMutex

	// Core components
	registry *Registry
	router   *Router

	// Subsystems
	modeManager opctx.ModeManagerInterface
	scene       opctx.SceneInterface
	meshSource  MeshSource
	events      *event.Bus

	// Configuration
	config Config

	// Metrics
	metrics *Metrics

	// Hooks
	preHooks  []PreDispatchHook
	postHooks []PostDispatchHook
}

// New creates a new dispatcher with the given configuration.
func New(config Config) *Dispatcher {
	d := &Dispatcher{
		registry: NewRegistry(),
		router:   NewRouter(),
		config:   config,
	}

	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}

	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// SetModeManager sets the mode manager.
func (d *Dispatcher) SetModeManager(mm opctx.ModeManagerInterface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modeManager = mm
}

// SetScene sets the scene.
func (d *Dispatcher) SetScene(s opctx.SceneInterface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scene = s
}

// SetMeshSource sets the edit-mesh source.
func (d *Dispatcher) SetMeshSource(src MeshSource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.meshSource = src
}

// SetEventBus sets the event bus.
func (d *Dispatcher) SetEventBus(bus *event.Bus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = bus
}

// ModeManager returns the mode manager.
func (d *Dispatcher) ModeManager() opctx.ModeManagerInterface {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modeManager
}

// Dispatch executes an invocation synchronously.
func (d *Dispatcher) Dispatch(req operator.Request) operator.Result {
	return d.dispatchInternal(req, nil)
}

// DispatchWithContext executes an invocation with an explicit context.
// Context fields left unset are filled from the dispatcher's subsystems.
func (d *Dispatcher) DispatchWithContext(req operator.Request, ctx *opctx.Context) operator.Result {
	return d.dispatchInternal(req, ctx)
}

// dispatchInternal is the core dispatch logic.
func (d *Dispatcher) dispatchInternal(req operator.Request, ctx *opctx.Context) operator.Result {
	startTime := time.Now()

	ctx = d.fillContext(ctx)

	// Run pre-dispatch hooks
	if !d.runPreHooks(&req, ctx) {
		return operator.Cancelled().WithMessage("cancelled by hook")
	}

	// Find operator
	op := d.router.Route(req.Name)
	if op == nil {
		op = d.registry.Get(req.Name)
	}
	if op == nil {
		return operator.Error(fmt.Errorf("%w: %s", ErrNoOperator, req.Name))
	}

	// Execute operator
	var result operator.Result
	if d.config.RecoverFromPanic {
		result = d.executeWithRecovery(op, req, ctx)
	} else {
		result = op.Invoke(req, ctx)
	}

	// Process result (mode changes, events)
	d.processResult(req, result, ctx)

	// Run post-dispatch hooks
	d.runPostHooks(&req, ctx, &result)

	// Record metrics
	if d.metrics != nil {
		d.metrics.RecordDispatch(req.Name, time.Since(startTime), result.Status)
	}

	return result
}

// executeWithRecovery executes an operator with panic recovery.
func (d *Dispatcher) executeWithRecovery(op operator.Operator, req operator.Request, ctx *opctx.Context) (result operator.Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)

			result = operator.Error(fmt.Errorf("%w: %s: %v\n%s", ErrPanic, req.Name, r, string(stack[:n])))

			if d.metrics != nil {
				d.metrics.RecordPanic(req.Name)
			}
		}
	}()

	return op.Invoke(req, ctx)
}

// fillContext completes a context with the dispatcher's subsystems.
func (d *Dispatcher) fillContext(ctx *opctx.Context) *opctx.Context {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if ctx == nil {
		ctx = opctx.New()
	}
	if ctx.ModeManager == nil {
		ctx.ModeManager = d.modeManager
	}
	if ctx.Scene == nil {
		ctx.Scene = d.scene
	}
	if ctx.Events == nil {
		ctx.Events = d.events
	}
	if ctx.Mesh == nil && d.meshSource != nil {
		ctx.Mesh = d.meshSource.CurrentEditMesh()
	}

	return ctx
}

// processResult processes an invocation result.
func (d *Dispatcher) processResult(req operator.Request, result operator.Result, ctx *opctx.Context) {
	// Handle mode change
	if result.ModeChange != "" && ctx.ModeManager != nil {
		_ = ctx.ModeManager.Switch(result.ModeChange)
	}

	// Announce mesh mutations
	if ctx.Events != nil && result.IsOK() && result.Delta != (operator.Delta{}) {
		ctx.Events.Emit(event.TopicMeshChanged, "dispatcher", map[string]any{
			"op":       req.Name,
			"topology": result.Delta.TopologyChanged(),
		})
	}
}

// Register registers an operator for an exact dotted name.
func (d *Dispatcher) Register(name string, op operator.Operator) {
	d.registry.Register(name, op)
}

// RegisterFunc registers an operator function for a dotted name.
func (d *Dispatcher) RegisterFunc(name string, fn func(operator.Request, *opctx.Context) operator.Result) {
	d.registry.Register(name, operator.NewFunc(fn))
}

// RegisterCategory registers a category operator.
func (d *Dispatcher) RegisterCategory(category string, op operator.CategoryOperator) {
	d.router.RegisterCategory(category, op)
}

// Unregister removes operators for a dotted name.
func (d *Dispatcher) Unregister(name string) {
	d.registry.Unregister(name)
}

// CanInvoke returns true if some operator can process the invocation.
func (d *Dispatcher) CanInvoke(name string) bool {
	return d.router.CanRoute(name) || d.registry.Has(name)
}

// RegisterPreHook registers a pre-dispatch hook.
func (d *Dispatcher) RegisterPreHook(hook PreDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preHooks = append(d.preHooks, hook)
}

// RegisterPostHook registers a post-dispatch hook.
func (d *Dispatcher) RegisterPostHook(hook PostDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postHooks = append(d.postHooks, hook)
}

// runPreHooks runs all pre-dispatch hooks.
// Returns false if any hook cancels the invocation.
func (d *Dispatcher) runPreHooks(req *operator.Request, ctx *opctx.Context) bool {
	d.mu.RLock()
	hooks := make([]PreDispatchHook, len(d.preHooks))
	copy(hooks, d.preHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		if !h.PreDispatch(req, ctx) {
			return false
		}
	}
	return true
}

// runPostHooks runs all post-dispatch hooks.
func (d *Dispatcher) runPostHooks(req *operator.Request, ctx *opctx.Context, result *operator.Result) {
	d.mu.RLock()
	hooks := make([]PostDispatchHook, len(d.postHooks))
	copy(hooks, d.postHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(req, ctx, result)
	}
}

// Registry returns the operator registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Router returns the invocation router.
func (d *Dispatcher) Router() *Router {
	return d.router
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}
