package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrNoActiveObject indicates edit mode was requested with no active object.
	ErrNoActiveObject = errors.New("no active object")

	// ErrNotEditMode indicates an edit-mesh operation outside edit mode.
	ErrNotEditMode = errors.New("not in edit mode")

	// ErrNotObjectMode indicates a scene operation that requires object mode.
	ErrNotObjectMode = errors.New("not in object mode")

	// ErrObjectExists indicates an object name is already taken.
	ErrObjectExists = errors.New("object already exists")

	// ErrObjectNotFound indicates a named object is not in the scene.
	ErrObjectNotFound = errors.New("object not found")

	// ErrOperatorName indicates a RegisterScriptOp name is not category.op.
	ErrOperatorName = errors.New("operator name must be category.op")
)
