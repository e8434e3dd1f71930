package lua

import "errors"

// Script host errors.
var (
	// ErrClosed is returned when using a closed executor or host.
	ErrClosed = errors.New("lua: script host is closed")

	// ErrQueueFull is returned when an async call cannot be queued.
	ErrQueueFull = errors.New("lua: executor queue full")
)
