package mode

import "errors"

// Mode package errors.
var (
	// ErrUnknownMode indicates a switch to a mode that was never registered.
	ErrUnknownMode = errors.New("mode: unknown mode")
)

// Mode defines the interface for interaction modes.
// Each mode determines which operators may run and how the active
// object's mesh is accessed.
type Mode interface {
	// Name returns the unique mode identifier (e.g., "object", "edit").
	Name() string

	// DisplayName returns a human-readable name for the status line.
	DisplayName() string

	// Enter is called when entering this mode.
	// The context provides information about the transition.
	Enter(ctx *Context) error

	// Exit is called when leaving this mode.
	// The context provides information about the transition.
	Exit(ctx *Context) error
}

// Context provides information during mode transitions.
type Context struct {
	// PreviousMode is the mode being transitioned from (for Enter).
	PreviousMode string

	// NextMode is the mode being transitioned to (for Exit).
	NextMode string

	// Object is the name of the active object, if any.
	Object string

	// Extra holds mode-specific context data.
	Extra map[string]any
}

// NewContext creates a new mode context.
func NewContext() *Context {
	return &Context{
		Extra: make(map[string]any),
	}
}

// WithObject returns a copy of the context with the given active object.
func (c *Context) WithObject(name string) *Context {
	copy := *c
	copy.Object = name
	return &copy
}

// Standard mode names.
const (
	ModeObject = "object"
	ModeEdit   = "edit"
)
