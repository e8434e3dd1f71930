// Package opctx provides the execution context for operator invocations.
package opctx

import (
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
)

// ModeManagerInterface abstracts mode management for operators.
type ModeManagerInterface interface {
	// Current mode
	CurrentName() string

	// Mode transitions
	Switch(name string) error

	// Mode queries
	IsMode(name string) bool
	IsAnyMode(names ...string) bool
}

// SceneInterface abstracts the scene for operators.
type SceneInterface interface {
	// ActiveObjectName returns the active object's name, or "".
	ActiveObjectName() string

	// SetActiveObject makes the named object active.
	SetActiveObject(name string) error

	// ObjectNames lists all objects in the scene.
	ObjectNames() []string
}

// Context provides context for operator execution.
// It contains references to the subsystems operators may touch.
type Context struct {
	// Mesh is the edit-mesh the operator mutates. Nil outside edit mode.
	Mesh *mesh.Mesh

	// ModeManager provides mode state and transitions.
	ModeManager ModeManagerInterface

	// Scene provides object-level state.
	Scene SceneInterface

	// Events receives operator lifecycle events. May be nil.
	Events *event.Bus

	// DryRun indicates changes should be computed but not applied.
	DryRun bool

	// Data holds operator-specific context data.
	Data map[string]any
}

// New creates a new execution context.
func New() *Context {
	return &Context{
		Data: make(map[string]any),
	}
}

// WithMesh returns the context with the edit-mesh set.
func (ctx *Context) WithMesh(m *mesh.Mesh) *Context {
	ctx.Mesh = m
	return ctx
}

// WithModeManager returns the context with the mode manager set.
func (ctx *Context) WithModeManager(mm ModeManagerInterface) *Context {
	ctx.ModeManager = mm
	return ctx
}

// WithScene returns the context with the scene set.
func (ctx *Context) WithScene(s SceneInterface) *Context {
	ctx.Scene = s
	return ctx
}

// WithEvents returns the context with the event bus set.
func (ctx *Context) WithEvents(bus *event.Bus) *Context {
	ctx.Events = bus
	return ctx
}

// WithDryRun returns the context with dry run mode enabled.
func (ctx *Context) WithDryRun(dryRun bool) *Context {
	ctx.DryRun = dryRun
	return ctx
}

// Mode returns the current mode name, or "" when no manager is set.
func (ctx *Context) Mode() string {
	if ctx.ModeManager != nil {
		return ctx.ModeManager.CurrentName()
	}
	return ""
}

// Emit publishes an event when a bus is attached.
func (ctx *Context) Emit(topic event.Topic, source string, data map[string]any) {
	if ctx.Events != nil {
		ctx.Events.Emit(topic, source, data)
	}
}
