package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/meshstorm/internal/dispatcher"
	"github.com/dshills/meshstorm/internal/dispatcher/operators/meshops"
	"github.com/dshills/meshstorm/internal/dispatcher/operators/objectops"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/logging"
	"github.com/dshills/meshstorm/internal/mode"
	"github.com/dshills/meshstorm/internal/operator"
	"github.com/dshills/meshstorm/internal/operator/opctx"
)

// Re-export commonly used types for convenience.
type (
	// Mesh is the polygon mesh data structure.
	Mesh = mesh.Mesh

	// ElementKind selects one of the three element collections.
	ElementKind = mesh.ElementKind

	// Collection is a kind-homogeneous view of mesh elements.
	Collection = mesh.Collection
)

// Re-export constants.
const (
	KindVerts = mesh.KindVerts
	KindEdges = mesh.KindEdges
	KindFaces = mesh.KindFaces

	ModeObject = mode.ModeObject
	ModeEdit   = mode.ModeEdit
)

// Engine is the main facade for the mesh editing engine. It combines
// the scene, interaction modes, the edit-mesh lifecycle, and operator
// dispatch into a unified, thread-safe API.
type Engine struct {
	mu sync.RWMutex

	// Core components
	scene *Scene
	modes *mode.Manager
	disp  *dispatcher.Dispatcher
	bus   *event.Bus
	log   *logging.Logger

	// Edit-mesh state. Non-nil only while in edit mode: editMesh is the
	// working copy of editObj's data.
	editMesh *mesh.Mesh
	editObj  *Object

	// Builtin operator categories
	meshOps *meshops.Operators
	objOps  *objectops.Operators

	// Script-registered categories, keyed by category name
	scriptCats map[string]*operator.BaseCategory

	// Configuration
	dispCfg dispatcher.Config
}

// New creates a new Engine with the given options. The engine starts in
// object mode with an empty scene.
func New(opts ...Option) *Engine {
	e := &Engine{
		scriptCats: make(map[string]*operator.BaseCategory),
		dispCfg:    dispatcher.DefaultConfig(),
	}

	// Apply options to get configuration
	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = logging.Default()
	}
	e.log = e.log.WithComponent("engine")
	if e.bus == nil {
		e.bus = event.NewBus()
	}
	if e.scene == nil {
		e.scene = NewScene()
	}

	// Register interaction modes; objectMode.Enter never fails.
	e.modes = mode.NewManager()
	e.modes.Register(objectMode{})
	e.modes.Register(editMode{eng: e})
	_ = e.modes.SetInitialMode(mode.ModeObject)

	// Wire the dispatcher to the engine's subsystems.
	e.meshOps = meshops.New()
	e.objOps = objectops.New()

	d := dispatcher.New(e.dispCfg)
	d.SetModeManager(e.modes)
	d.SetScene(e.scene)
	d.SetMeshSource(e)
	d.SetEventBus(e.bus)
	d.RegisterCategory(e.meshOps.Category(), e.meshOps)
	d.RegisterCategory(e.objOps.Category(), e.objOps)
	e.disp = d

	e.modes.OnChange(func(from, to mode.Mode) {
		fromName := ""
		if from != nil {
			fromName = from.Name()
		}
		e.bus.Emit(event.TopicModeChanged, "engine", map[string]any{
			"from": fromName,
			"to":   to.Name(),
		})
	})

	return e
}

// ============================================================================
// Scene Operations
// ============================================================================

// Scene returns the scene.
func (e *Engine) Scene() *Scene {
	return e.scene
}

// AddObject inserts a named mesh object into the scene. The first
// object added becomes the active object.
func (e *Engine) AddObject(name string, data *mesh.Mesh) (*Object, error) {
	obj, err := e.scene.Add(name, data)
	if err != nil {
		return nil, err
	}
	verts, edges, faces := data.Counts()
	e.log.Debug("added object %s (%d verts, %d edges, %d faces)", name, verts, edges, faces)
	return obj, nil
}

// RemoveObject deletes an object from the scene. Objects cannot be
// removed while in edit mode.
func (e *Engine) RemoveObject(name string) error {
	if e.modes.IsMode(mode.ModeEdit) {
		return fmt.Errorf("%w: cannot remove objects in edit mode", ErrNotObjectMode)
	}
	return e.scene.Remove(name)
}

// ActiveObject returns the active object, or nil when none is set.
func (e *Engine) ActiveObject() *Object {
	return e.scene.Active()
}

// SetActiveObject makes the named object active. The active object
// cannot change while in edit mode.
func (e *Engine) SetActiveObject(name string) error {
	if e.modes.IsMode(mode.ModeEdit) {
		return fmt.Errorf("%w: cannot change the active object in edit mode", ErrNotObjectMode)
	}
	return e.scene.SetActiveObject(name)
}

// Objects returns the scene's object names in sorted order.
func (e *Engine) Objects() []string {
	return e.scene.ObjectNames()
}

// ============================================================================
// Mode Operations
// ============================================================================

// Modes returns the mode manager.
func (e *Engine) Modes() *mode.Manager {
	return e.modes
}

// Mode returns the current interaction mode name.
func (e *Engine) Mode() string {
	return e.modes.CurrentName()
}

// SetMode switches the interaction mode. Switching to edit mode stages
// a working copy of the active object's mesh; switching back to object
// mode writes it back. Switching edit to edit restages, which is how a
// stale edit-mesh handle is refreshed.
func (e *Engine) SetMode(name string) error {
	return e.modes.Switch(name)
}

// ============================================================================
// Edit-Mesh Operations
// ============================================================================

// CurrentEditMesh returns the working mesh while in edit mode, nil
// otherwise. It implements the dispatcher's mesh source.
func (e *Engine) CurrentEditMesh() *mesh.Mesh {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.editMesh
}

// FlushEdit writes the working mesh back to the active object without
// leaving edit mode, then announces the mesh change.
func (e *Engine) FlushEdit() error {
	e.mu.Lock()
	if e.editMesh == nil || e.editObj == nil {
		e.mu.Unlock()
		return ErrNotEditMode
	}
	e.editMesh.CopyInto(e.editObj.Data)
	name := e.editObj.Name
	e.mu.Unlock()

	e.bus.Emit(event.TopicMeshChanged, "engine", map[string]any{
		"object": name,
		"flush":  true,
	})
	return nil
}

// beginEdit stages a working copy of the active object's data. Lookup
// tables start fresh so stored element indices match positions.
func (e *Engine) beginEdit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.scene.Active()
	if obj == nil {
		return ErrNoActiveObject
	}

	em := obj.Data.Clone()
	for _, k := range mesh.Kinds {
		em.Collection(k).EnsureLookupTable()
	}
	e.editMesh = em
	e.editObj = obj
	e.log.Debug("edit begin: %s", obj.Name)
	return nil
}

// endEdit writes the working copy back and clears the edit state.
// Exiting without a staged mesh is a no-op.
func (e *Engine) endEdit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.editMesh == nil || e.editObj == nil {
		return nil
	}
	e.editMesh.CopyInto(e.editObj.Data)
	e.log.Debug("edit end: %s", e.editObj.Name)
	e.editMesh = nil
	e.editObj = nil
	return nil
}

// ============================================================================
// Operator Invocation
// ============================================================================

// Invoke dispatches a named operator with the given parameters.
func (e *Engine) Invoke(name string, params operator.Params, source operator.RequestSource) operator.Result {
	return e.disp.Dispatch(operator.NewRequest(name, params, source))
}

// CanInvoke returns true if an operator is registered for the name.
func (e *Engine) CanInvoke(name string) bool {
	return e.disp.CanInvoke(name)
}

// RegisterScriptOp registers a script-provided operator under a dotted
// name. Names in a builtin category are registered individually; new
// categories get a shared category handler.
func (e *Engine) RegisterScriptOp(name string, fn func(operator.Request, *opctx.Context) operator.Result) error {
	idx := strings.Index(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return fmt.Errorf("%w: %q", ErrOperatorName, name)
	}
	category := name[:idx]

	e.mu.Lock()
	defer e.mu.Unlock()

	if bc, ok := e.scriptCats[category]; ok {
		bc.Register(name, fn)
		return nil
	}
	if e.disp.Router().HasCategory(category) {
		e.disp.Register(name, operator.NewFunc(fn))
		return nil
	}
	bc := operator.NewBaseCategory(category)
	bc.Register(name, fn)
	e.scriptCats[category] = bc
	e.disp.RegisterCategory(category, bc)
	return nil
}

// KnownOps returns the names of all registered operators, sorted.
func (e *Engine) KnownOps() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := append([]string{}, e.meshOps.Ops()...)
	names = append(names, e.objOps.Ops()...)
	names = append(names, e.disp.Registry().List()...)
	for _, bc := range e.scriptCats {
		names = append(names, bc.Names()...)
	}
	sort.Strings(names)

	// Registry entries can shadow category names; drop duplicates.
	out := names[:0]
	for i, n := range names {
		if i == 0 || n != names[i-1] {
			out = append(out, n)
		}
	}
	return out
}

// ============================================================================
// Subsystem Access
// ============================================================================

// Events returns the event bus.
func (e *Engine) Events() *event.Bus {
	return e.bus
}

// Dispatcher returns the operator dispatcher.
func (e *Engine) Dispatcher() *dispatcher.Dispatcher {
	return e.disp
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *logging.Logger {
	return e.log
}
