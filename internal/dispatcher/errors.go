package dispatcher

import "errors"

// Dispatcher errors.
var (
	// ErrNoOperator indicates no operator was found for an invocation.
	ErrNoOperator = errors.New("dispatcher: no operator for invocation")

	// ErrCancelled indicates the invocation was cancelled by a hook.
	ErrCancelled = errors.New("dispatcher: invocation cancelled by hook")

	// ErrPanic indicates the operator panicked.
	ErrPanic = errors.New("dispatcher: operator panic")
)
