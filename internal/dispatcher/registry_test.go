package dispatcher_test

import (
	"testing"

	"github.com/dshills/meshstorm/internal/dispatcher"
	"github.com/dshills/meshstorm/internal/operator"
	"github.com/dshills/meshstorm/internal/operator/opctx"
)

func okOp() *operator.Func {
	return operator.NewFunc(func(operator.Request, *opctx.Context) operator.Result {
		return operator.Success()
	})
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := dispatcher.NewRegistry()
	registry.Register("mesh.inset", okOp())

	if got := registry.Get("mesh.inset"); got == nil {
		t.Fatal("expected non-nil operator")
	}
	if got := registry.Get("mesh.missing"); got != nil {
		t.Error("expected nil for missing name")
	}
}

func TestRegistryPriorityOrder(t *testing.T) {
	registry := dispatcher.NewRegistry()

	low := operator.NewFuncWithPriority(func(operator.Request, *opctx.Context) operator.Result {
		return operator.SuccessWithMessage("low")
	}, 1)
	high := operator.NewFuncWithPriority(func(operator.Request, *opctx.Context) operator.Result {
		return operator.SuccessWithMessage("high")
	}, 10)

	registry.Register("mesh.smooth", low)
	registry.Register("mesh.smooth", high)

	got := registry.Get("mesh.smooth")
	res := got.Invoke(operator.NewRequest("mesh.smooth", nil, operator.SourceAPI), opctx.New())
	if res.Message != "high" {
		t.Errorf("highest priority should win, got %q", res.Message)
	}

	if all := registry.GetAll("mesh.smooth"); len(all) != 2 {
		t.Errorf("GetAll returned %d operators", len(all))
	}
}

func TestRegistryHasAndList(t *testing.T) {
	registry := dispatcher.NewRegistry()
	registry.Register("mesh.delete", okOp())
	registry.Register("mesh.colorize", okOp())

	if !registry.Has("mesh.delete") {
		t.Error("expected Has to return true")
	}
	if registry.Has("mesh.missing") {
		t.Error("expected Has to return false")
	}

	names := registry.List()
	if len(names) != 2 || names[0] != "mesh.colorize" || names[1] != "mesh.delete" {
		t.Errorf("List = %v, want sorted names", names)
	}
	if registry.Count() != 2 {
		t.Errorf("Count = %d", registry.Count())
	}
}

func TestRegistryUnregisterAndClear(t *testing.T) {
	registry := dispatcher.NewRegistry()
	registry.Register("mesh.delete", okOp())
	registry.Unregister("mesh.delete")

	if registry.Has("mesh.delete") {
		t.Error("operator still registered after Unregister")
	}

	registry.Register("a.b", okOp())
	registry.Register("c.d", okOp())
	registry.Clear()
	if registry.Count() != 0 {
		t.Errorf("Count after Clear = %d", registry.Count())
	}
}
