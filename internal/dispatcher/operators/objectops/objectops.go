// Package objectops provides the builtin object-level operators.
package objectops

import (
	"strings"

	"github.com/dshills/meshstorm/internal/mode"
	"github.com/dshills/meshstorm/internal/operator"
	"github.com/dshills/meshstorm/internal/operator/opctx"
)

// Operator names for object operations.
const (
	OpModeSet  = "object.modeSet"  // switch interaction mode
	OpActivate = "object.activate" // make a scene object active
)

// Operators handles the object operator category.
type Operators struct{}

// New creates the object category operators.
func New() *Operators {
	return &Operators{}
}

// Category returns the object category.
func (o *Operators) Category() string {
	return "object"
}

// CanInvoke returns true if this handler can process the invocation.
func (o *Operators) CanInvoke(name string) bool {
	switch name {
	case OpModeSet, OpActivate:
		return true
	}
	return false
}

// Ops lists the operator names this category handles.
func (o *Operators) Ops() []string {
	return []string{OpModeSet, OpActivate}
}

// InvokeOp processes an object invocation.
func (o *Operators) InvokeOp(req operator.Request, ctx *opctx.Context) operator.Result {
	switch req.Name {
	case OpModeSet:
		return o.modeSet(req, ctx)
	case OpActivate:
		return o.activate(req, ctx)
	default:
		return operator.Errorf("unknown object operator: %s", req.Name)
	}
}

// modeSet switches the interaction mode. The mode parameter accepts
// "object"/"edit" in any case, including the OBJECT/EDIT spelling used
// by recorded tool scripts.
func (o *Operators) modeSet(req operator.Request, ctx *opctx.Context) operator.Result {
	name := strings.ToLower(req.Params.Str("mode", ""))
	switch name {
	case mode.ModeObject, mode.ModeEdit:
	case "":
		return operator.Errorf("object.modeSet: missing mode parameter")
	default:
		return operator.Errorf("object.modeSet: unknown mode %q", name)
	}

	if ctx.ModeManager == nil {
		return operator.Errorf("object.modeSet: no mode manager")
	}
	// Switch here so a failed transition surfaces as the result error.
	// ModeChange stays unset to keep the dispatcher from switching again.
	if err := ctx.ModeManager.Switch(name); err != nil {
		return operator.Error(err)
	}
	return operator.SuccessWithData("mode", name)
}

// activate makes the named object the scene's active object.
func (o *Operators) activate(req operator.Request, ctx *opctx.Context) operator.Result {
	name := req.Params.Str("name", "")
	if name == "" {
		return operator.Errorf("object.activate: missing name parameter")
	}
	if ctx.Scene == nil {
		return operator.Errorf("object.activate: no scene")
	}
	if ctx.ModeManager != nil && !ctx.ModeManager.IsMode(mode.ModeObject) {
		return operator.Errorf("object.activate: requires object mode")
	}
	if err := ctx.Scene.SetActiveObject(name); err != nil {
		return operator.Error(err)
	}
	return operator.SuccessWithData("active", name)
}
