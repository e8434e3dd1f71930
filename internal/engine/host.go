package engine

import (
	"fmt"

	"github.com/dshills/meshstorm/internal/applier"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/operator"
)

// Host returns an adapter exposing the engine to the selection applier.
func (e *Engine) Host() applier.Host {
	return hostAdapter{e}
}

type hostAdapter struct {
	e *Engine
}

func (h hostAdapter) Mode() string {
	return h.e.Mode()
}

func (h hostAdapter) SetMode(name string) error {
	return h.e.SetMode(name)
}

func (h hostAdapter) EditMesh() (applier.Mesh, error) {
	m := h.e.CurrentEditMesh()
	if m == nil {
		return nil, ErrNotEditMode
	}
	return editHandle{m}, nil
}

func (h hostAdapter) DeselectAll() error {
	m := h.e.CurrentEditMesh()
	if m == nil {
		return ErrNotEditMode
	}
	m.DeselectAll()
	return nil
}

func (h hostAdapter) Flush() error {
	return h.e.FlushEdit()
}

func (h hostAdapter) CanInvoke(name string) bool {
	return h.e.CanInvoke(name)
}

func (h hostAdapter) Invoke(name string, params map[string]any) error {
	res := h.e.Invoke(name, operator.Params(params), operator.SourceApplier)
	switch {
	case res.IsError():
		return res.Error
	case res.Status == operator.StatusCancelled:
		return fmt.Errorf("%s: %s", name, res.Message)
	}
	return nil
}

// editHandle is the applier's view of the staged edit-mesh.
type editHandle struct {
	m *mesh.Mesh
}

func (h editHandle) Collection(kind mesh.ElementKind) applier.Collection {
	return h.m.Collection(kind)
}
