package app

import (
	"github.com/dshills/meshstorm/internal/applier"
	"github.com/dshills/meshstorm/internal/config"
	"github.com/dshills/meshstorm/internal/engine"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/meshio"
)

// LoadMesh reads an OBJ file and adds it to the scene under the
// mesh's own name. The first object added becomes active.
func (a *Application) LoadMesh(path string) (*engine.Object, error) {
	m, err := meshio.Load(path)
	if err != nil {
		return nil, err
	}
	obj, err := a.eng.AddObject(m.Name, m)
	if err != nil {
		return nil, err
	}
	v, e, f := m.Counts()
	a.log.Info("loaded %s: %d verts, %d edges, %d faces", path, v, e, f)
	return obj, nil
}

// SaveMesh writes the active object to an OBJ file, flushing edit
// state first so the file reflects pending changes.
func (a *Application) SaveMesh(path string) error {
	obj := a.eng.ActiveObject()
	if obj == nil {
		return engine.ErrNoActiveObject
	}
	if a.eng.Mode() == engine.ModeEdit {
		if err := a.eng.FlushEdit(); err != nil {
			return err
		}
	}
	return meshio.Save(path, obj.Data)
}

// SelectElements enters edit mode and selects the given stored
// indices of kind on the edit mesh, or every element of the kind when
// indices is empty. OBJ files carry no selection, so headless runs
// start here.
func (a *Application) SelectElements(kind mesh.ElementKind, indices []int) error {
	if a.eng.Mode() != engine.ModeEdit {
		if err := a.eng.SetMode(engine.ModeEdit); err != nil {
			return err
		}
	}
	coll := a.eng.CurrentEditMesh().Collection(kind)
	coll.EnsureLookupTable()
	if len(indices) == 0 {
		for i := 0; i < coll.Len(); i++ {
			if err := coll.Select(i, true); err != nil {
				return err
			}
		}
		return nil
	}
	for _, idx := range indices {
		if err := coll.Select(idx, true); err != nil {
			return err
		}
	}
	return nil
}

// ApplyOnce runs the per-element applier over the current selection
// with the engine as host. The host must already be in edit mode.
func (a *Application) ApplyOnce(kind mesh.ElementKind, op string, params map[string]any) (*applier.Report, error) {
	ap, err := applier.New(a.eng.Host(), applier.Config{
		Kind:     kind,
		Operator: op,
		Params:   params,
		Events:   a.bus,
		Logger:   a.log,
	})
	if err != nil {
		return nil, err
	}
	return ap.Run()
}

// ApplyConfigured runs the applier from a configuration section, as
// produced by Config.Applier or Config.Preset.
func (a *Application) ApplyConfigured(ac config.ApplierConfig) (*applier.Report, error) {
	kind, err := mesh.ParseKind(ac.Kind)
	if err != nil {
		return nil, err
	}
	return a.ApplyOnce(kind, ac.Operator, ac.Params)
}
