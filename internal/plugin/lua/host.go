package lua

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/meshstorm/internal/applier"
	"github.com/dshills/meshstorm/internal/engine"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/logging"
	"github.com/dshills/meshstorm/internal/operator"
)

// Host runs Lua scripts against the engine. Scripts see a single global
// table, ms, carrying the mesh, mode, operator, applier, scene, event
// and log modules. All Lua execution is confined to one worker
// goroutine; Host methods may be called from anywhere.
type Host struct {
	eng *engine.Engine
	ha  applier.Host
	bus *event.Bus
	log *logging.Logger

	L    *lua.LState
	exec *Executor

	queueSize int

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu   sync.Mutex
	subs []func()
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(h *Host) {
		if log != nil {
			h.log = log
		}
	}
}

// WithQueueSize bounds the executor queue. Event handlers queued while
// a script runs live here, so hosts that fan events into Lua may want
// more headroom than the default.
func WithQueueSize(n int) Option {
	return func(h *Host) {
		h.queueSize = n
	}
}

// New creates a script host bound to the engine and starts its worker.
// Call Close to release the Lua state.
func New(eng *engine.Engine, opts ...Option) (*Host, error) {
	h := &Host{
		eng:       eng,
		queueSize: 256,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logging.Default()
	}
	h.log = h.log.WithComponent("lua")
	h.bus = eng.Events()
	h.ha = eng.Host()

	h.L = newState()
	h.exec = NewExecutor(h.L, h.queueSize)
	h.install()

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.exec.Run(ctx)
	}()

	return h, nil
}

// DoString runs a chunk of Lua source.
func (h *Host) DoString(ctx context.Context, code string) error {
	return h.exec.Execute(ctx, func(L *lua.LState) error {
		return L.DoString(code)
	})
}

// DoFile runs a Lua script file and announces it on the bus.
func (h *Host) DoFile(ctx context.Context, path string) error {
	err := h.exec.Execute(ctx, func(L *lua.LState) error {
		return L.DoFile(path)
	})
	if err != nil {
		return err
	}
	h.bus.Emit(event.TopicScriptLoaded, "lua", map[string]any{"path": path})
	h.log.Info("loaded %s", path)
	return nil
}

// Call invokes a global Lua function with converted arguments and
// returns its converted results.
func (h *Host) Call(ctx context.Context, fn string, args ...any) ([]any, error) {
	var out []any
	err := h.exec.Execute(ctx, func(L *lua.LState) error {
		fnVal := L.GetGlobal(fn)
		if fnVal.Type() != lua.LTFunction {
			return fmt.Errorf("lua: %q is not a function (got %s)", fn, fnVal.Type())
		}

		top := L.GetTop()
		L.Push(fnVal)
		for _, a := range args {
			L.Push(toLua(L, a))
		}
		if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
			return err
		}

		n := L.GetTop() - top
		out = make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = toGo(L.Get(top + 1 + i))
		}
		L.Pop(n)
		return nil
	})
	return out, err
}

// Invoke dispatches an operator on the script goroutine. Operators
// registered from Lua must be reached this way (or from inside a
// running script); dispatching them from other goroutines races with
// the Lua state.
func (h *Host) Invoke(ctx context.Context, name string, params operator.Params) (operator.Result, error) {
	var res operator.Result
	err := h.exec.Execute(ctx, func(*lua.LState) error {
		res = h.eng.Invoke(name, params, operator.SourceScript)
		return nil
	})
	return res, err
}

// Engine returns the engine this host is bound to.
func (h *Host) Engine() *engine.Engine {
	return h.eng
}

// Close drops the host's event subscriptions, stops the worker and
// frees the Lua state. Safe to call more than once.
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		subs := h.subs
		h.subs = nil
		h.mu.Unlock()
		for _, off := range subs {
			off()
		}

		h.exec.Close()
		h.cancel()
		h.wg.Wait()
		h.L.Close()
	})
}
