package engine

import "github.com/dshills/meshstorm/internal/mode"

// objectMode is the default interaction mode. Operators act on whole
// objects and the scene; element-level mesh access is unavailable.
type objectMode struct{}

func (objectMode) Name() string              { return mode.ModeObject }
func (objectMode) DisplayName() string       { return "Object" }
func (objectMode) Enter(*mode.Context) error { return nil }
func (objectMode) Exit(*mode.Context) error  { return nil }

// editMode exposes the active object's mesh for element-level editing.
// Entering stages a working copy of the object data with fresh lookup
// tables; exiting writes the copy back. Re-entering (switching edit to
// edit) therefore restages from the object, which is how a handle to
// the edit-mesh is refreshed.
type editMode struct {
	eng *Engine
}

func (editMode) Name() string        { return mode.ModeEdit }
func (editMode) DisplayName() string { return "Edit" }

func (m editMode) Enter(*mode.Context) error {
	return m.eng.beginEdit()
}

func (m editMode) Exit(*mode.Context) error {
	return m.eng.endEdit()
}
