package lua

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/meshstorm/internal/applier"
	"github.com/dshills/meshstorm/internal/engine"
	"github.com/dshills/meshstorm/internal/engine/geom"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/operator"
	"github.com/dshills/meshstorm/internal/operator/opctx"
)

// apiVersion is bumped whenever the shape of the ms table changes.
const apiVersion = 1

// install builds the ms global. Runs once during New, before the worker
// goroutine starts, so direct L access is safe here.
func (h *Host) install() {
	L := h.L
	ms := L.NewTable()
	L.SetField(ms, "log", h.logModule())
	L.SetField(ms, "mode", h.modeModule())
	L.SetField(ms, "mesh", h.meshModule())
	L.SetField(ms, "ops", h.opsModule())
	L.SetField(ms, "applier", h.applierModule())
	L.SetField(ms, "scene", h.sceneModule())
	L.SetField(ms, "events", h.eventsModule())
	L.SetField(ms, "api_version", lua.LNumber(apiVersion))
	L.SetGlobal("ms", ms)
}

// --- ms.log ---

func (h *Host) logModule() *lua.LTable {
	L := h.L
	mod := L.NewTable()
	L.SetField(mod, "debug", L.NewFunction(logFn(h.log.Debug)))
	L.SetField(mod, "info", L.NewFunction(logFn(h.log.Info)))
	L.SetField(mod, "warn", L.NewFunction(logFn(h.log.Warn)))
	L.SetField(mod, "error", L.NewFunction(logFn(h.log.Error)))
	return mod
}

func logFn(emit func(string, ...any)) lua.LGFunction {
	return func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.Get(i).String())
		}
		emit("%s", strings.Join(parts, " "))
		return 0
	}
}

// --- ms.mode ---

func (h *Host) modeModule() *lua.LTable {
	L := h.L
	mod := L.NewTable()
	L.SetField(mod, "OBJECT", lua.LString(engine.ModeObject))
	L.SetField(mod, "EDIT", lua.LString(engine.ModeEdit))
	L.SetField(mod, "current", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(h.eng.Mode()))
		return 1
	}))
	L.SetField(mod, "set", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if err := h.eng.SetMode(name); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	L.SetField(mod, "is", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(h.eng.Mode() == L.CheckString(1)))
		return 1
	}))
	return mod
}

// --- ms.mesh ---

// editMesh returns the live edit mesh or raises a Lua error.
func (h *Host) editMesh(L *lua.LState) *mesh.Mesh {
	m := h.eng.CurrentEditMesh()
	if m == nil {
		L.RaiseError("mesh: not in edit mode")
	}
	return m
}

func checkKind(L *lua.LState, n int) mesh.ElementKind {
	kind, err := mesh.ParseKind(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return kind
}

func (h *Host) meshModule() *lua.LTable {
	L := h.L
	mod := L.NewTable()
	L.SetField(mod, "counts", L.NewFunction(func(L *lua.LState) int {
		v, e, f := h.editMesh(L).Counts()
		L.Push(lua.LNumber(v))
		L.Push(lua.LNumber(e))
		L.Push(lua.LNumber(f))
		return 3
	}))
	L.SetField(mod, "selected", L.NewFunction(func(L *lua.LState) int {
		coll := h.editMesh(L).Collection(checkKind(L, 1))
		L.Push(toLua(L, coll.SelectedIndices()))
		return 1
	}))
	L.SetField(mod, "select", L.NewFunction(func(L *lua.LState) int {
		coll := h.editMesh(L).Collection(checkKind(L, 1))
		idx := L.CheckInt(2)
		coll.EnsureLookupTable()
		if err := coll.Select(idx, L.OptBool(3, true)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	L.SetField(mod, "deselect_all", L.NewFunction(func(L *lua.LState) int {
		if err := h.ha.DeselectAll(); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	L.SetField(mod, "flush", L.NewFunction(func(L *lua.LState) int {
		if err := h.ha.Flush(); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	L.SetField(mod, "add_vertex", L.NewFunction(func(L *lua.LState) int {
		m := h.editMesh(L)
		co := geom.Vec3{
			X: float64(L.CheckNumber(1)),
			Y: float64(L.CheckNumber(2)),
			Z: float64(L.CheckNumber(3)),
		}
		L.Push(lua.LNumber(m.AddVertex(co).Index()))
		return 1
	}))
	L.SetField(mod, "add_face", L.NewFunction(func(L *lua.LState) int {
		m := h.editMesh(L)
		n := L.GetTop()
		if n < 3 {
			L.ArgError(1, "need at least three vertex indices")
		}
		verts := make([]int, 0, n)
		for i := 1; i <= n; i++ {
			verts = append(verts, L.CheckInt(i))
		}
		face, err := m.AddFace(verts...)
		if err != nil {
			L.RaiseError("%v", err)
		}
		L.Push(lua.LNumber(face.Index()))
		return 1
	}))
	L.SetField(mod, "vertex", L.NewFunction(func(L *lua.LState) int {
		coll := h.editMesh(L).Collection(mesh.KindVerts)
		coll.EnsureLookupTable()
		el, err := coll.At(L.CheckInt(1))
		if err != nil {
			L.RaiseError("%v", err)
		}
		v := el.(*mesh.Vertex)
		L.Push(lua.LNumber(v.Co.X))
		L.Push(lua.LNumber(v.Co.Y))
		L.Push(lua.LNumber(v.Co.Z))
		return 3
	}))
	return mod
}

// --- ms.ops ---

func (h *Host) opsModule() *lua.LTable {
	L := h.L
	mod := L.NewTable()
	L.SetField(mod, "invoke", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		params := tableToParams(L.OptTable(2, nil))
		res := h.eng.Invoke(name, params, operator.SourceScript)
		L.Push(resultTable(L, res))
		return 1
	}))
	L.SetField(mod, "can_invoke", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(h.eng.CanInvoke(L.CheckString(1))))
		return 1
	}))
	L.SetField(mod, "list", L.NewFunction(func(L *lua.LState) int {
		L.Push(toLua(L, h.eng.KnownOps()))
		return 1
	}))
	L.SetField(mod, "register", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		fn := L.CheckFunction(2)
		if err := h.eng.RegisterScriptOp(name, h.wrapOperator(name, fn)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	return mod
}

func resultTable(L *lua.LState, res operator.Result) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "status", lua.LString(res.Status.String()))
	if res.Message != "" {
		L.SetField(t, "message", lua.LString(res.Message))
	}
	if res.Error != nil {
		L.SetField(t, "error", lua.LString(res.Error.Error()))
	}
	if len(res.Data) > 0 {
		L.SetField(t, "data", toLua(L, res.Data))
	}
	return t
}

// wrapOperator adapts a Lua function into an engine operator. The
// wrapper touches L directly: dispatch reaches it only beneath a
// running script or beneath Host.Invoke, both of which execute on the
// worker goroutine that owns the state.
func (h *Host) wrapOperator(name string, fn *lua.LFunction) func(operator.Request, *opctx.Context) operator.Result {
	return func(req operator.Request, _ *opctx.Context) operator.Result {
		L := h.L
		top := L.GetTop()
		L.Push(fn)
		L.Push(toLua(L, map[string]any(req.Params)))
		if err := L.PCall(1, lua.MultRet, nil); err != nil {
			return operator.Error(fmt.Errorf("lua: %s: %w", name, err))
		}
		nret := L.GetTop() - top
		var ret lua.LValue = lua.LNil
		if nret > 0 {
			ret = L.Get(top + 1)
		}
		res := luaResult(ret)
		L.Pop(nret)
		return res
	}
}

// luaResult maps a script return value onto an operator result.
// nil and true mean success, false means cancelled, a string becomes
// the success message, and a table may carry status, message and data.
func luaResult(lv lua.LValue) operator.Result {
	switch v := lv.(type) {
	case *lua.LNilType:
		return operator.Success()
	case lua.LBool:
		if bool(v) {
			return operator.Success()
		}
		return operator.Cancelled()
	case lua.LString:
		return operator.SuccessWithMessage(string(v))
	case *lua.LTable:
		status := strings.ToLower(stringField(v, "status", "ok"))
		message := stringField(v, "message", "")
		var res operator.Result
		switch status {
		case "", "ok":
			res = operator.Success()
		case "noop", "no-op":
			res = operator.NoOp()
		case "cancelled":
			res = operator.Cancelled()
		case "error":
			if message == "" {
				message = "script operator failed"
			}
			return operator.Error(errors.New(message))
		default:
			return operator.Errorf("lua: unknown result status %q", status)
		}
		if message != "" {
			res = res.WithMessage(message)
		}
		if data, ok := v.RawGetString("data").(*lua.LTable); ok {
			if m, ok := tableToGo(data, map[*lua.LTable]bool{}).(map[string]any); ok {
				for key, val := range m {
					res = res.WithData(key, val)
				}
			}
		}
		return res
	default:
		return operator.Success()
	}
}

func stringField(t *lua.LTable, key, def string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return def
}

// --- ms.applier ---

func (h *Host) applierModule() *lua.LTable {
	L := h.L
	mod := L.NewTable()
	L.SetField(mod, "run", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		opName := stringField(t, "op", stringField(t, "operator", ""))
		if opName == "" {
			L.ArgError(1, "op is required")
		}
		kind, err := mesh.ParseKind(stringField(t, "kind", "faces"))
		if err != nil {
			L.ArgError(1, err.Error())
		}
		var params map[string]any
		if pt, ok := t.RawGetString("params").(*lua.LTable); ok {
			params = tableToParams(pt)
		}
		ap, err := applier.New(h.ha, applier.Config{
			Kind:     kind,
			Operator: opName,
			Params:   params,
			Events:   h.bus,
			Logger:   h.log,
		})
		if err != nil {
			L.RaiseError("%v", err)
		}
		rep, err := ap.Run()
		if err != nil {
			L.RaiseError("%v", err)
		}
		L.Push(reportTable(L, rep))
		return 1
	}))
	return mod
}

func reportTable(L *lua.LState, rep *applier.Report) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "run_id", lua.LString(rep.RunID))
	L.SetField(t, "kind", lua.LString(rep.Kind))
	L.SetField(t, "operator", lua.LString(rep.Operator))
	L.SetField(t, "captured", toLua(L, rep.Captured))
	L.SetField(t, "applied", toLua(L, rep.Applied))
	L.SetField(t, "restored", lua.LNumber(rep.Restored))
	L.SetField(t, "topology_changed", lua.LBool(rep.TopologyChanged))
	L.SetField(t, "elapsed_ms", lua.LNumber(rep.Elapsed.Milliseconds()))
	return t
}

// --- ms.scene ---

func (h *Host) sceneModule() *lua.LTable {
	L := h.L
	mod := L.NewTable()
	L.SetField(mod, "objects", L.NewFunction(func(L *lua.LState) int {
		L.Push(toLua(L, h.eng.Objects()))
		return 1
	}))
	L.SetField(mod, "active", L.NewFunction(func(L *lua.LState) int {
		obj := h.eng.ActiveObject()
		if obj == nil {
			L.Push(lua.LNil)
		} else {
			L.Push(lua.LString(obj.Name))
		}
		return 1
	}))
	L.SetField(mod, "set_active", L.NewFunction(func(L *lua.LState) int {
		if err := h.eng.SetActiveObject(L.CheckString(1)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	L.SetField(mod, "add", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		prim := L.OptString(2, "cube")
		size := float64(L.OptNumber(3, 2))
		var data *mesh.Mesh
		switch prim {
		case "cube":
			data = mesh.NewCube(size)
		case "grid":
			data = mesh.NewGrid(4, 4, size)
		case "plane":
			data = mesh.NewPlane(size)
		default:
			L.ArgError(2, fmt.Sprintf("unknown primitive %q", prim))
		}
		data.Name = name
		if _, err := h.eng.AddObject(name, data); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	return mod
}

// --- ms.events ---

func (h *Host) eventsModule() *lua.LTable {
	L := h.L
	mod := L.NewTable()
	L.SetField(mod, "on", L.NewFunction(func(L *lua.LState) int {
		pattern := L.CheckString(1)
		fn := L.CheckFunction(2)
		off := h.bus.Subscribe(event.Topic(pattern), h.eventHandler(fn))
		h.mu.Lock()
		h.subs = append(h.subs, off)
		h.mu.Unlock()
		L.Push(L.NewFunction(func(L *lua.LState) int {
			off()
			return 0
		}))
		return 1
	}))
	L.SetField(mod, "emit", L.NewFunction(func(L *lua.LState) int {
		topic := L.CheckString(1)
		data := tableToParams(L.OptTable(2, nil))
		h.bus.Emit(event.Topic(topic), "script", data)
		return 0
	}))
	return mod
}

// eventHandler marshals a bus event onto the worker goroutine. Bus
// publishers run on arbitrary goroutines, so the Lua callback must not
// fire inline; it is queued and runs when the worker drains it, after
// any currently executing script.
func (h *Host) eventHandler(fn *lua.LFunction) event.Handler {
	return func(ev event.Event) {
		err := h.exec.ExecuteAsync(func(L *lua.LState) error {
			L.Push(fn)
			L.Push(lua.LString(ev.Type))
			L.Push(toLua(L, ev.Data))
			return L.PCall(2, 0, nil)
		})
		switch {
		case err == nil:
		case errors.Is(err, ErrClosed):
		default:
			h.log.Warn("event handler dropped: %v", err)
		}
	}
}
