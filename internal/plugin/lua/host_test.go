package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/meshstorm/internal/engine"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/operator"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	eng := engine.New()
	if _, err := eng.AddObject("Cube", mesh.NewCube(2)); err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	h, err := New(eng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestHostDoString(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	if err := h.DoString(ctx, `x = 21 * 2`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if err := h.DoString(ctx, `assert(x == 42)`); err != nil {
		t.Fatalf("globals do not persist across chunks: %v", err)
	}
}

func TestHostDoStringError(t *testing.T) {
	h := newTestHost(t)

	if err := h.DoString(testCtx(t), `this is not lua`); err == nil {
		t.Error("DoString of garbage returned nil error")
	}
}

func TestHostSandbox(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `
		assert(type(ms) == "table", "ms global missing")
		assert(dofile == nil, "dofile leaked")
		assert(loadfile == nil, "loadfile leaked")
		assert(load == nil, "load leaked")
		assert(loadstring == nil, "loadstring leaked")
		assert(os == nil, "os library leaked")
		assert(io == nil, "io library leaked")
		assert(string.upper("a") == "A")
		assert(math.floor(1.9) == 1)
		local tt = {}
		table.insert(tt, 5)
		assert(tt[1] == 5)
	`)
	if err != nil {
		t.Fatalf("sandbox check: %v", err)
	}
}

func TestHostCall(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	err := h.DoString(ctx, `
		function add(a, b) return a + b end
		function multi() return 1, "two", true end
	`)
	if err != nil {
		t.Fatalf("DoString: %v", err)
	}

	out, err := h.Call(ctx, "add", 2, 3)
	if err != nil {
		t.Fatalf("Call(add): %v", err)
	}
	if len(out) != 1 || out[0] != int64(5) {
		t.Errorf("add(2, 3) = %v, want [5]", out)
	}

	out, err = h.Call(ctx, "multi")
	if err != nil {
		t.Fatalf("Call(multi): %v", err)
	}
	if len(out) != 3 || out[0] != int64(1) || out[1] != "two" || out[2] != true {
		t.Errorf("multi() = %v, want [1 two true]", out)
	}

	if _, err := h.Call(ctx, "missing"); err == nil || !strings.Contains(err.Error(), "not a function") {
		t.Errorf("Call(missing) err = %v, want not-a-function", err)
	}
}

func TestHostModeModule(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `
		assert(ms.mode.current() == ms.mode.OBJECT)
		ms.mode.set(ms.mode.EDIT)
		assert(ms.mode.is(ms.mode.EDIT))
		ms.mode.set(ms.mode.OBJECT)
		assert(ms.mode.current() == ms.mode.OBJECT)
	`)
	if err != nil {
		t.Fatalf("mode module: %v", err)
	}
}

func TestHostModeSetUnknown(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `ms.mode.set("sculpt")`)
	if err == nil {
		t.Error("set of unknown mode returned nil error")
	}
}

func TestHostMeshSelection(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `
		ms.mode.set(ms.mode.EDIT)
		local v, e, f = ms.mesh.counts()
		assert(v == 8 and e == 12 and f == 6, "cube counts")
		assert(#ms.mesh.selected("verts") == 0, "fresh mesh has a selection")

		ms.mesh.select("verts", 0)
		ms.mesh.select("verts", 3)
		local sel = ms.mesh.selected("verts")
		assert(#sel == 2 and sel[1] == 0 and sel[2] == 3, "selected indices")

		ms.mesh.select("verts", 3, false)
		assert(#ms.mesh.selected("verts") == 1, "deselect one")

		ms.mesh.deselect_all()
		assert(#ms.mesh.selected("verts") == 0, "deselect all")
	`)
	if err != nil {
		t.Fatalf("mesh selection: %v", err)
	}
}

func TestHostMeshSelectOutOfRange(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `
		ms.mode.set(ms.mode.EDIT)
		ms.mesh.select("faces", 99)
	`)
	if err == nil {
		t.Error("out-of-range select returned nil error")
	}
}

func TestHostMeshBuild(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	err := h.DoString(ctx, `
		ms.mode.set(ms.mode.EDIT)
		local a = ms.mesh.add_vertex(0, 0, 5)
		local b = ms.mesh.add_vertex(1, 0, 5)
		local c = ms.mesh.add_vertex(1, 1, 5)
		assert(a == 8 and b == 9 and c == 10, "vertex indices continue from the cube")

		local f = ms.mesh.add_face(a, b, c)
		assert(f == 6, "face index continues from the cube")

		local x, y, z = ms.mesh.vertex(c)
		assert(x == 1 and y == 1 and z == 5, "vertex coordinates")

		ms.mesh.flush()
	`)
	if err != nil {
		t.Fatalf("mesh build: %v", err)
	}

	// flush wrote the working copy back to the object.
	v, _, f := h.Engine().ActiveObject().Data.Counts()
	if v != 11 || f != 7 {
		t.Errorf("object data after flush = %d verts %d faces, want 11 and 7", v, f)
	}
}

func TestHostMeshRequiresEditMode(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `ms.mesh.counts()`)
	if err == nil || !strings.Contains(err.Error(), "not in edit mode") {
		t.Errorf("counts outside edit mode err = %v, want not-in-edit-mode", err)
	}
}

func TestHostOpsModule(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `
		assert(ms.ops.can_invoke("mesh.selectAll"))
		assert(not ms.ops.can_invoke("mesh.bogus"))

		local found = false
		for _, name in ipairs(ms.ops.list()) do
			if name == "mesh.inset" then found = true end
		end
		assert(found, "mesh.inset not listed")

		ms.mode.set(ms.mode.EDIT)
		local res = ms.ops.invoke("mesh.selectAll", {action = "SELECT"})
		assert(res.status == "ok", res.error)
		assert(#ms.mesh.selected("faces") == 6, "everything selected")

		res = ms.ops.invoke("mesh.selectAll", {action = "DESELECT"})
		assert(res.status == "ok", res.error)
		assert(#ms.mesh.selected("faces") == 0, "everything deselected")
	`)
	if err != nil {
		t.Fatalf("ops module: %v", err)
	}
}

func TestHostRegisterOperator(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	err := h.DoString(ctx, `
		ms.ops.register("custom.double", function(params)
			return {status = "ok", message = "doubled", data = {value = params.value * 2}}
		end)
		local r = ms.ops.invoke("custom.double", {value = 4})
		assert(r.status == "ok" and r.message == "doubled", "script-side invoke")
		assert(r.data.value == 8, "script-side data")
	`)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// The registered operator is reachable from Go through the host.
	res, err := h.Invoke(ctx, "custom.double", operator.Params{"value": 21})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Status != operator.StatusOK || res.Message != "doubled" {
		t.Fatalf("result = %v %q, want ok doubled", res.Status, res.Message)
	}
	if got := res.Data["value"]; got != int64(42) {
		t.Errorf("data.value = %v (%T), want 42", got, got)
	}
}

func TestHostOperatorResultShapes(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	err := h.DoString(ctx, `
		ms.ops.register("custom.never", function() return false end)
		ms.ops.register("custom.note", function() return "did it" end)
		ms.ops.register("custom.fail", function() return {status = "error", message = "nope"} end)
		ms.ops.register("custom.skip", function() return {status = "noop"} end)
		ms.ops.register("custom.raise", function() error("blew up") end)
	`)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := h.Invoke(ctx, "custom.never", nil)
	if err != nil || res.Status != operator.StatusCancelled {
		t.Errorf("never = %v %v, want cancelled", res.Status, err)
	}

	res, err = h.Invoke(ctx, "custom.note", nil)
	if err != nil || res.Status != operator.StatusOK || res.Message != "did it" {
		t.Errorf("note = %v %q %v, want ok with message", res.Status, res.Message, err)
	}

	res, err = h.Invoke(ctx, "custom.fail", nil)
	if err != nil || res.Status != operator.StatusError {
		t.Fatalf("fail = %v %v, want error status", res.Status, err)
	}
	if res.Error == nil || res.Error.Error() != "nope" {
		t.Errorf("fail error = %v, want nope", res.Error)
	}

	res, err = h.Invoke(ctx, "custom.skip", nil)
	if err != nil || res.Status != operator.StatusNoOp {
		t.Errorf("skip = %v %v, want no-op", res.Status, err)
	}

	res, err = h.Invoke(ctx, "custom.raise", nil)
	if err != nil || res.Status != operator.StatusError {
		t.Fatalf("raise = %v %v, want error status", res.Status, err)
	}
	if res.Error == nil || !strings.Contains(res.Error.Error(), "blew up") {
		t.Errorf("raise error = %v, want the script message", res.Error)
	}
}

func TestHostApplierRun(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `
		ms.mode.set(ms.mode.EDIT)
		ms.mesh.select("faces", 0)
		ms.mesh.select("faces", 2)

		local rep = ms.applier.run{kind = "faces", op = "mesh.inset",
			params = {thickness = 0.1}}

		assert(rep.kind == "faces")
		assert(rep.operator == "mesh.inset")
		assert(rep.run_id ~= "", "run id missing")
		assert(rep.elapsed_ms >= 0)
		assert(#rep.captured == 2 and rep.captured[1] == 0 and rep.captured[2] == 2)
		assert(#rep.applied == 2)
		assert(rep.restored == 2)
		assert(rep.topology_changed == true, "inset changes topology")

		local sel = ms.mesh.selected("faces")
		assert(#sel == 2 and sel[1] == 0 and sel[2] == 2, "selection restored")

		local _, _, f = ms.mesh.counts()
		assert(f == 14, "each inset trades one face for five")
	`)
	if err != nil {
		t.Fatalf("applier run: %v", err)
	}
}

func TestHostApplierRunErrors(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	err := h.DoString(ctx, `ms.applier.run{kind = "faces"}`)
	if err == nil || !strings.Contains(err.Error(), "op is required") {
		t.Errorf("missing op err = %v", err)
	}

	err = h.DoString(ctx, `ms.applier.run{kind = "faces", op = "mesh.inset"}`)
	if err == nil || !strings.Contains(err.Error(), "edit mode") {
		t.Errorf("object mode err = %v", err)
	}

	err = h.DoString(ctx, `
		ms.mode.set(ms.mode.EDIT)
		ms.applier.run{kind = "faces", op = "mesh.inset"}
	`)
	if err == nil || !strings.Contains(err.Error(), "selected") {
		t.Errorf("empty selection err = %v", err)
	}
}

func TestHostEvents(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	err := h.DoString(ctx, `
		pings = 0
		last = nil
		off = ms.events.on("custom.ping", function(topic, data)
			pings = pings + 1
			last = data.n
		end)
		ms.events.emit("custom.ping", {n = 7})
	`)
	if err != nil {
		t.Fatalf("subscribe and emit: %v", err)
	}

	// The handler was queued behind the emitting chunk and drains
	// before the next one runs.
	if err := h.DoString(ctx, `assert(pings == 1 and last == 7, "handler did not run")`); err != nil {
		t.Fatal(err)
	}

	if err := h.DoString(ctx, `
		off()
		ms.events.emit("custom.ping", {n = 9})
	`); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := h.DoString(ctx, `assert(pings == 1, "handler fired after off()")`); err != nil {
		t.Fatal(err)
	}
}

func TestHostEventsFromApplier(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	err := h.DoString(ctx, `
		steps = 0
		ms.events.on("applier.run.*", function() steps = steps + 1 end)
		ms.mode.set(ms.mode.EDIT)
		ms.mesh.select("faces", 1)
		ms.applier.run{kind = "faces", op = "mesh.inset", params = {thickness = 0.05}}
	`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if err := h.DoString(ctx, `assert(steps == 3, "started, one step, finished")`); err != nil {
		t.Fatal(err)
	}
}

func TestHostSceneModule(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `
		assert(ms.scene.active() == "Cube")
		ms.scene.add("Patch", "grid", 2)

		local names = ms.scene.objects()
		assert(#names == 2 and names[1] == "Cube" and names[2] == "Patch")

		ms.scene.set_active("Patch")
		assert(ms.scene.active() == "Patch")

		ms.mode.set(ms.mode.EDIT)
		local v, e, f = ms.mesh.counts()
		assert(v == 25 and e == 40 and f == 16, "4x4 grid counts")
	`)
	if err != nil {
		t.Fatalf("scene module: %v", err)
	}
}

func TestHostSceneAddUnknownPrimitive(t *testing.T) {
	h := newTestHost(t)

	err := h.DoString(testCtx(t), `ms.scene.add("Blob", "torus")`)
	if err == nil || !strings.Contains(err.Error(), "unknown primitive") {
		t.Errorf("err = %v, want unknown primitive", err)
	}
}

func TestHostDoFile(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	path := filepath.Join(t.TempDir(), "setup.lua")
	if err := os.WriteFile(path, []byte("loaded_marker = 99\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var eventPath string
	off := h.Engine().Events().Subscribe(event.TopicScriptLoaded, func(ev event.Event) {
		eventPath, _ = ev.Data["path"].(string)
	})
	defer off()

	if err := h.DoFile(ctx, path); err != nil {
		t.Fatalf("DoFile: %v", err)
	}
	if eventPath != path {
		t.Errorf("script.loaded path = %q, want %q", eventPath, path)
	}
	if err := h.DoString(ctx, `assert(loaded_marker == 99)`); err != nil {
		t.Fatal(err)
	}
}

func TestHostDoFileMissing(t *testing.T) {
	h := newTestHost(t)

	if err := h.DoFile(testCtx(t), filepath.Join(t.TempDir(), "nope.lua")); err == nil {
		t.Error("DoFile of a missing script returned nil error")
	}
}

func TestHostClose(t *testing.T) {
	h := newTestHost(t)
	ctx := testCtx(t)

	h.Close()
	h.Close() // idempotent

	if err := h.DoString(ctx, `x = 1`); !errors.Is(err, ErrClosed) {
		t.Errorf("DoString after Close err = %v, want ErrClosed", err)
	}
	if _, err := h.Invoke(ctx, "mesh.selectAll", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Invoke after Close err = %v, want ErrClosed", err)
	}
}
