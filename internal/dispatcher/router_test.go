package dispatcher_test

import (
	"testing"

	"github.com/dshills/meshstorm/internal/dispatcher"
	"github.com/dshills/meshstorm/internal/operator"
	"github.com/dshills/meshstorm/internal/operator/opctx"
)

func meshCategory() *operator.BaseCategory {
	cat := operator.NewBaseCategory("mesh")
	cat.Register("mesh.inset", func(operator.Request, *opctx.Context) operator.Result {
		return operator.SuccessWithMessage("inset")
	})
	cat.Register("mesh.subdivide", func(operator.Request, *opctx.Context) operator.Result {
		return operator.SuccessWithMessage("subdivide")
	})
	return cat
}

func TestRouterRouteByCategory(t *testing.T) {
	router := dispatcher.NewRouter()
	router.RegisterCategory("mesh", meshCategory())

	op := router.Route("mesh.inset")
	if op == nil {
		t.Fatal("expected routed operator")
	}
	res := op.Invoke(operator.NewRequest("mesh.inset", nil, operator.SourceAPI), opctx.New())
	if res.Message != "inset" {
		t.Errorf("routed to %q", res.Message)
	}

	if op := router.Route("mesh.unknown"); op != nil {
		t.Error("unknown op in known category should not route")
	}
	if op := router.Route("object.modeSet"); op != nil {
		t.Error("unknown category should not route")
	}
	if op := router.Route("bare"); op != nil {
		t.Error("undotted name should not route")
	}
}

func TestRouterFallback(t *testing.T) {
	router := dispatcher.NewRouter()
	router.SetFallback(operator.NewFunc(func(operator.Request, *opctx.Context) operator.Result {
		return operator.SuccessWithMessage("fallback")
	}))

	op := router.Route("anything.atAll")
	if op == nil {
		t.Fatal("expected fallback")
	}
	res := op.Invoke(operator.NewRequest("anything.atAll", nil, operator.SourceAPI), opctx.New())
	if res.Message != "fallback" {
		t.Errorf("got %q", res.Message)
	}

	if !router.CanRoute("whatever") {
		t.Error("fallback should make everything routable")
	}
}

func TestRouterCategoryManagement(t *testing.T) {
	router := dispatcher.NewRouter()
	router.RegisterCategory("mesh", meshCategory())

	if !router.HasCategory("mesh") {
		t.Error("HasCategory(mesh) = false")
	}
	if got := router.GetCategoryOperator("mesh"); got == nil {
		t.Error("GetCategoryOperator returned nil")
	}
	if names := router.Categories(); len(names) != 1 || names[0] != "mesh" {
		t.Errorf("Categories = %v", names)
	}

	if !router.CanRoute("mesh.subdivide") {
		t.Error("CanRoute(mesh.subdivide) = false")
	}
	if router.CanRoute("mesh.unknown") {
		t.Error("CanRoute(mesh.unknown) = true")
	}

	router.UnregisterCategory("mesh")
	if router.HasCategory("mesh") {
		t.Error("category still present after unregister")
	}
}
