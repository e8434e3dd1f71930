package operator

import "fmt"

// Status indicates the outcome of an invocation.
type Status uint8

const (
	// StatusOK indicates successful execution.
	StatusOK Status = iota
	// StatusNoOp indicates the operator had no effect.
	StatusNoOp
	// StatusError indicates an error occurred.
	StatusError
	// StatusCancelled indicates the invocation was cancelled.
	StatusCancelled
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOp:
		return "no-op"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Delta summarizes what an operator did to the mesh.
type Delta struct {
	// Element count changes.
	VertsAdded   int
	VertsRemoved int
	EdgesAdded   int
	EdgesRemoved int
	FacesAdded   int
	FacesRemoved int

	// Moved is the number of vertices whose position changed.
	Moved int

	// Recolored is the number of vertices whose color changed.
	Recolored int
}

// TopologyChanged reports whether any elements were added or removed.
func (d Delta) TopologyChanged() bool {
	return d.VertsAdded != 0 || d.VertsRemoved != 0 ||
		d.EdgesAdded != 0 || d.EdgesRemoved != 0 ||
		d.FacesAdded != 0 || d.FacesRemoved != 0
}

// Add accumulates another delta into this one.
func (d Delta) Add(o Delta) Delta {
	d.VertsAdded += o.VertsAdded
	d.VertsRemoved += o.VertsRemoved
	d.EdgesAdded += o.EdgesAdded
	d.EdgesRemoved += o.EdgesRemoved
	d.FacesAdded += o.FacesAdded
	d.FacesRemoved += o.FacesRemoved
	d.Moved += o.Moved
	d.Recolored += o.Recolored
	return d
}

// Result represents the outcome of invoking an operator.
type Result struct {
	// Status indicates the result status.
	Status Status

	// Error contains any error that occurred.
	Error error

	// Message is an optional status message for display.
	Message string

	// Delta summarizes mesh changes made by the operator.
	Delta Delta

	// ModeChange indicates a mode transition (empty if no change).
	ModeChange string

	// Data holds operator-specific return data.
	Data map[string]any
}

// IsOK returns true if the result indicates success.
func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

// IsError returns true if the result indicates an error.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// Success creates a successful result.
func Success() Result {
	return Result{Status: StatusOK}
}

// SuccessWithMessage creates a successful result with a message.
func SuccessWithMessage(msg string) Result {
	return Result{Status: StatusOK, Message: msg}
}

// SuccessWithData creates a successful result with data.
func SuccessWithData(key string, value any) Result {
	return Result{
		Status: StatusOK,
		Data:   map[string]any{key: value},
	}
}

// NoOp creates a no-operation result.
func NoOp() Result {
	return Result{Status: StatusNoOp}
}

// NoOpWithMessage creates a no-operation result with a message.
func NoOpWithMessage(msg string) Result {
	return Result{Status: StatusNoOp, Message: msg}
}

// Error creates an error result.
func Error(err error) Result {
	return Result{Status: StatusError, Error: err}
}

// Errorf creates an error result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{
		Status: StatusError,
		Error:  fmt.Errorf(format, args...),
	}
}

// Cancelled creates a cancelled result.
func Cancelled() Result {
	return Result{Status: StatusCancelled}
}

// WithMessage returns a copy of the result with the specified message.
func (r Result) WithMessage(msg string) Result {
	r.Message = msg
	return r
}

// WithModeChange returns a copy of the result with a mode change.
func (r Result) WithModeChange(mode string) Result {
	r.ModeChange = mode
	return r
}

// WithDelta returns a copy of the result with the mesh delta set.
func (r Result) WithDelta(d Delta) Result {
	r.Delta = d
	return r
}

// WithData returns a copy of the result with data added.
func (r Result) WithData(key string, value any) Result {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

// GetData retrieves a value from the result data.
func (r Result) GetData(key string) (any, bool) {
	if r.Data == nil {
		return nil, false
	}
	v, ok := r.Data[key]
	return v, ok
}

// GetDataString retrieves a string value from the result data.
func (r Result) GetDataString(key string) string {
	if v, ok := r.GetData(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetDataInt retrieves an int value from the result data.
func (r Result) GetDataInt(key string) int {
	if v, ok := r.GetData(key); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}
