// Package applier applies a mesh operator to each selected element of
// an edit-mesh, one element at a time. It automates the cycle an artist
// would otherwise do by hand: capture the selection, isolate each
// element, run the operator on it alone, then restore the original
// selection.
//
// The applier drives the editing host through a narrow interface and
// never touches mesh data directly beyond selection flags, so it can be
// exercised against a fake host in tests.
package applier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/logging"
	"github.com/dshills/meshstorm/internal/mode"
)

// Errors returned by applier construction and runs.
var (
	// ErrNotEditMode indicates the host was not in edit mode.
	ErrNotEditMode = errors.New("applier: host not in edit mode")

	// ErrNotInvocable indicates the configured operator is not registered.
	ErrNotInvocable = errors.New("applier: operator not invocable")

	// ErrNotMeshOperator indicates the operator is outside the mesh category.
	ErrNotMeshOperator = errors.New("applier: operator not in the mesh category")

	// ErrNothingSelected indicates the captured selection was empty.
	ErrNothingSelected = errors.New("applier: nothing selected")
)

// meshCategory is the only operator category the applier accepts.
const meshCategory = "mesh"

// Collection is the per-kind element access the applier needs: stored
// selection indices, lookup refresh, and index-based selection.
type Collection interface {
	Len() int
	SelectedIndices() []int
	EnsureLookupTable()
	Select(i int, selected bool) error
	Selected(i int) (bool, error)
}

// Mesh is an edit-mesh snapshot offering per-kind collections.
type Mesh interface {
	Collection(kind mesh.ElementKind) Collection
}

// Host is the editing host the applier drives: mode control, the
// edit-mesh handle, global deselection, write-back, and operator
// invocation.
type Host interface {
	Mode() string
	SetMode(name string) error
	EditMesh() (Mesh, error)
	DeselectAll() error
	Flush() error
	Invoke(name string, params map[string]any) error
	CanInvoke(name string) bool
}

// Config fixes the inputs of a run: which element kind to iterate,
// which operator to apply, and the parameters it receives. Immutable
// once the applier is constructed.
type Config struct {
	Kind     mesh.ElementKind
	Operator string
	Params   map[string]any

	// Events receives run progress topics when set.
	Events *event.Bus
	// Logger defaults to the process logger.
	Logger *logging.Logger
}

// Applier applies one operator to each selected element in turn.
type Applier struct {
	host   Host
	mesh   Mesh
	kind   mesh.ElementKind
	op     string
	params map[string]any
	bus    *event.Bus
	log    *logging.Logger
}

// New validates the configuration against the host and acquires a fresh
// edit-mesh handle. The host must already be in edit mode; the operator
// must be invocable and belong to the mesh category.
func New(host Host, cfg Config) (*Applier, error) {
	if host.Mode() != mode.ModeEdit {
		return nil, ErrNotEditMode
	}
	if !cfg.Kind.Valid() {
		return nil, fmt.Errorf("%w: %s", mesh.ErrInvalidKind, cfg.Kind)
	}
	if !host.CanInvoke(cfg.Operator) {
		return nil, fmt.Errorf("%w: %s", ErrNotInvocable, cfg.Operator)
	}
	if category(cfg.Operator) != meshCategory {
		return nil, fmt.Errorf("%w: %s", ErrNotMeshOperator, cfg.Operator)
	}

	// Toggle out of and back into edit mode so the handle acquired
	// below reflects the object's current data with fresh lookup
	// tables.
	if err := host.SetMode(mode.ModeObject); err != nil {
		return nil, err
	}
	if err := host.SetMode(mode.ModeEdit); err != nil {
		return nil, err
	}
	m, err := host.EditMesh()
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}

	return &Applier{
		host:   host,
		mesh:   m,
		kind:   cfg.Kind,
		op:     cfg.Operator,
		params: cfg.Params,
		bus:    cfg.Events,
		log:    log.WithComponent("applier"),
	}, nil
}

// Run executes the four phases: capture, clear, apply, restore. Any
// error from the host or the operator aborts the run immediately,
// leaving the mesh in whatever state the loop reached. The returned
// report covers the work done up to that point.
func (a *Applier) Run() (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:    uuid.NewString(),
		Kind:     a.kind.String(),
		Operator: a.op,
	}
	log := a.log.WithField("run", report.RunID)

	// Element counts bracket the run; drift means the operator changed
	// topology and the restored indices are positional reuse.
	v0, e0, f0 := a.counts()
	defer func() {
		v1, e1, f1 := a.counts()
		report.TopologyChanged = v1 != v0 || e1 != e0 || f1 != f0
	}()

	// Capture: stored indices of selected elements, native order.
	coll := a.mesh.Collection(a.kind)
	report.Captured = coll.SelectedIndices()
	if len(report.Captured) == 0 {
		log.Warn("no %s selected", a.kind)
		return report, fmt.Errorf("%w: no %s selected", ErrNothingSelected, a.kind)
	}
	log.Info("applying %s to %d %s", a.op, len(report.Captured), a.kind)
	a.emit(event.TopicRunStarted, map[string]any{
		"run":      report.RunID,
		"kind":     report.Kind,
		"operator": a.op,
		"captured": len(report.Captured),
	})

	// Clear: start the loop from an empty selection.
	if err := a.clear(); err != nil {
		return report, err
	}

	// Apply: isolate each captured element and run the operator on it.
	// The operator sees exactly one selected element per invocation.
	for i, idx := range report.Captured {
		if err := a.selectOne(idx); err != nil {
			log.Error("apply aborted at %s %d: %v", a.kind, idx, err)
			return report, err
		}
		if err := a.host.Invoke(a.op, a.params); err != nil {
			log.Error("%s failed on %s %d: %v", a.op, a.kind, idx, err)
			return report, fmt.Errorf("%s on %s %d: %w", a.op, a.kind, idx, err)
		}
		report.Applied = append(report.Applied, idx)
		a.emit(event.TopicRunStep, map[string]any{
			"run":   report.RunID,
			"index": idx,
			"step":  i + 1,
			"total": len(report.Captured),
		})
		if err := a.clear(); err != nil {
			return report, err
		}
	}

	// Restore: re-select the captured indices, flushing once at the
	// end. If the operator changed topology the indices may now name
	// different elements or none at all; they are reused as-is.
	coll.EnsureLookupTable()
	for _, idx := range report.Captured {
		if err := coll.Select(idx, true); err != nil {
			log.Error("restore aborted at %s %d: %v", a.kind, idx, err)
			return report, fmt.Errorf("select %s %d: %w", a.kind, idx, err)
		}
		report.Restored++
	}
	if err := a.host.Flush(); err != nil {
		return report, err
	}
	a.emit(event.TopicSelectionChanged, map[string]any{
		"kind":     a.kind.String(),
		"selected": report.Restored,
	})

	report.Elapsed = time.Since(start)
	log.Info("run complete: applied %d, restored %d in %s",
		len(report.Applied), report.Restored, report.Elapsed)
	a.emit(event.TopicRunFinished, map[string]any{
		"run":        report.RunID,
		"applied":    len(report.Applied),
		"restored":   report.Restored,
		"elapsed_ms": report.Elapsed.Milliseconds(),
	})
	return report, nil
}

// counts returns the per-kind element totals of the edit mesh.
func (a *Applier) counts() (verts, edges, faces int) {
	return a.mesh.Collection(mesh.KindVerts).Len(),
		a.mesh.Collection(mesh.KindEdges).Len(),
		a.mesh.Collection(mesh.KindFaces).Len()
}

// clear deselects every element and pushes the change to the host.
func (a *Applier) clear() error {
	if err := a.host.DeselectAll(); err != nil {
		return err
	}
	return a.host.Flush()
}

// selectOne selects the element at idx after refreshing the lookup
// table, then pushes the change.
func (a *Applier) selectOne(idx int) error {
	coll := a.mesh.Collection(a.kind)
	coll.EnsureLookupTable()
	if err := coll.Select(idx, true); err != nil {
		return fmt.Errorf("select %s %d: %w", a.kind, idx, err)
	}
	return a.host.Flush()
}

func (a *Applier) emit(topic event.Topic, data map[string]any) {
	if a.bus == nil {
		return
	}
	a.bus.Emit(topic, "applier", data)
}

// category returns the segment before the first dot.
func category(name string) string {
	if idx := strings.Index(name, "."); idx >= 0 {
		return name[:idx]
	}
	return name
}
