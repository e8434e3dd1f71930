package dispatcher

import (
	"github.com/dshills/meshstorm/internal/operator"
	"github.com/dshills/meshstorm/internal/operator/opctx"
)

// PreDispatchHook is called before an invocation is dispatched.
// Returning false cancels the dispatch.
type PreDispatchHook interface {
	// PreDispatch is called before dispatch.
	// It may modify the request or context.
	// Returns false to cancel the dispatch.
	PreDispatch(req *operator.Request, ctx *opctx.Context) bool
}

// PostDispatchHook is called after an invocation is dispatched.
type PostDispatchHook interface {
	// PostDispatch is called after dispatch completes.
	// It may inspect or modify the result.
	PostDispatch(req *operator.Request, ctx *opctx.Context, result *operator.Result)
}

// PreDispatchFunc is a function adapter for PreDispatchHook.
type PreDispatchFunc func(req *operator.Request, ctx *opctx.Context) bool

// PreDispatch implements PreDispatchHook.
func (f PreDispatchFunc) PreDispatch(req *operator.Request, ctx *opctx.Context) bool {
	return f(req, ctx)
}

// PostDispatchFunc is a function adapter for PostDispatchHook.
type PostDispatchFunc func(req *operator.Request, ctx *opctx.Context, result *operator.Result)

// PostDispatch implements PostDispatchHook.
func (f PostDispatchFunc) PostDispatch(req *operator.Request, ctx *opctx.Context, result *operator.Result) {
	f(req, ctx, result)
}
