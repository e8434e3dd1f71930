package lua

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// task is one queued Lua operation. result receives exactly one error
// and is closed afterwards.
type task struct {
	fn     func(L *lua.LState) error
	result chan error
}

// Executor serializes Lua operations onto a single worker goroutine.
//
// gopher-lua's LState is not goroutine-safe, so every touch of the
// state must happen on one goroutine. Run is that goroutine; Execute
// and ExecuteAsync marshal work to it from anywhere.
type Executor struct {
	L      *lua.LState
	queue  chan *task
	done   chan struct{}
	closed atomic.Bool

	closeOnce sync.Once
}

// NewExecutor creates an executor for the given state. queueSize bounds
// how many operations may wait; 0 or less picks a default.
func NewExecutor(L *lua.LState, queueSize int) *Executor {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Executor{
		L:     L,
		queue: make(chan *task, queueSize),
		done:  make(chan struct{}),
	}
}

// Run processes queued operations until the context is cancelled or
// Close is called, then fails the remaining queue. It must be the only
// goroutine that ever touches the state.
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.failPending(ctx.Err())
			return
		case <-e.done:
			e.failPending(ErrClosed)
			return
		case t := <-e.queue:
			e.finish(t, e.runTask(t))
		}
	}
}

// runTask executes one operation, converting a Lua panic into an error.
func (e *Executor) runTask(t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(error); ok {
				err = re
				return
			}
			err = fmt.Errorf("lua: panic: %v", r)
		}
	}()
	return t.fn(e.L)
}

func (e *Executor) finish(t *task, err error) {
	select {
	case t.result <- err:
	default:
	}
	close(t.result)
}

// failPending answers every still-queued task with err.
func (e *Executor) failPending(err error) {
	for {
		select {
		case t := <-e.queue:
			e.finish(t, err)
		default:
			return
		}
	}
}

// Execute runs fn on the worker goroutine and waits for it. fn receives
// the state and may use it freely for the duration of the call.
func (e *Executor) Execute(ctx context.Context, fn func(L *lua.LState) error) error {
	if e.closed.Load() {
		return ErrClosed
	}

	t := &task{fn: fn, result: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrClosed
	case e.queue <- t:
	}

	select {
	case <-ctx.Done():
		// The task stays queued and will still run; we just stop waiting.
		return ctx.Err()
	case err, ok := <-t.result:
		if !ok {
			return ErrClosed
		}
		return err
	}
}

// ExecuteAsync queues fn without waiting for it. Useful for event
// handlers fired from foreign goroutines. If the queue is full the call
// is dropped with ErrQueueFull rather than blocking the emitter.
func (e *Executor) ExecuteAsync(fn func(L *lua.LState) error) error {
	if e.closed.Load() {
		return ErrClosed
	}

	t := &task{fn: fn, result: make(chan error, 1)}

	select {
	case <-e.done:
		return ErrClosed
	case e.queue <- t:
		go func() { <-t.result }()
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the executor. Queued operations fail with ErrClosed.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)
	})
}

// IsClosed reports whether Close has been called.
func (e *Executor) IsClosed() bool {
	return e.closed.Load()
}
