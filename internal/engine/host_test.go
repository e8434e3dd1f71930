package engine_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/dshills/meshstorm/internal/applier"
	"github.com/dshills/meshstorm/internal/engine"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
)

func TestHostOutsideEditMode(t *testing.T) {
	e := newTestEngine(t)
	h := e.Host()

	if _, err := h.EditMesh(); !errors.Is(err, engine.ErrNotEditMode) {
		t.Errorf("EditMesh err = %v, want ErrNotEditMode", err)
	}
	if err := h.DeselectAll(); !errors.Is(err, engine.ErrNotEditMode) {
		t.Errorf("DeselectAll err = %v, want ErrNotEditMode", err)
	}

	_, err := applier.New(h, applier.Config{Kind: mesh.KindFaces, Operator: "mesh.inset"})
	if !errors.Is(err, applier.ErrNotEditMode) {
		t.Errorf("applier.New err = %v, want ErrNotEditMode", err)
	}
}

func TestHostInvokeMapsResults(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetMode(engine.ModeEdit); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	h := e.Host()

	if err := h.Invoke("mesh.selectAll", map[string]any{"action": "SELECT"}); err != nil {
		t.Errorf("selectAll err = %v", err)
	}
	if err := h.Invoke("mesh.bogus", nil); err == nil {
		t.Error("unknown operator should error")
	}
	// A no-op result is not an error.
	e.CurrentEditMesh().DeselectAll()
	if err := h.Invoke("mesh.delete", nil); err != nil {
		t.Errorf("no-op delete err = %v", err)
	}
}

func TestApplierAgainstEngine(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetMode(engine.ModeEdit); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	faces := e.CurrentEditMesh().Collection(mesh.KindFaces)
	for _, i := range []int{0, 2} {
		if err := faces.Select(i, true); err != nil {
			t.Fatalf("select face %d: %v", i, err)
		}
	}

	var mu sync.Mutex
	finished := 0
	e.Events().Subscribe(event.TopicRunFinished, func(event.Event) {
		mu.Lock()
		finished++
		mu.Unlock()
	})

	a, err := applier.New(e.Host(), applier.Config{
		Kind:     mesh.KindFaces,
		Operator: "mesh.inset",
		Params:   map[string]any{"thickness": 0.1},
		Events:   e.Events(),
	})
	if err != nil {
		t.Fatalf("applier.New: %v", err)
	}

	report, err := a.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Applied) != 2 || report.Restored != 2 {
		t.Errorf("applied=%v restored=%d, want 2 and 2", report.Applied, report.Restored)
	}

	// Each inset of a quad nets 4 extra faces and the run flushes every
	// change back to the object.
	if err := e.SetMode(engine.ModeObject); err != nil {
		t.Fatalf("SetMode(object): %v", err)
	}
	if _, _, f := e.ActiveObject().Data.Counts(); f != 14 {
		t.Errorf("object faces = %d, want 14", f)
	}

	mu.Lock()
	defer mu.Unlock()
	if finished != 1 {
		t.Errorf("run.finished events = %d, want 1", finished)
	}
}

func TestApplierSelectionSurvivesHandleRefresh(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetMode(engine.ModeEdit); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	before := e.CurrentEditMesh()
	if err := before.Collection(mesh.KindFaces).Select(3, true); err != nil {
		t.Fatalf("select: %v", err)
	}

	// Construction toggles out of and back into edit mode; the selection
	// rides along through the object write-back.
	a, err := applier.New(e.Host(), applier.Config{Kind: mesh.KindFaces, Operator: "mesh.smooth"})
	if err != nil {
		t.Fatalf("applier.New: %v", err)
	}
	if e.CurrentEditMesh() == before {
		t.Error("edit handle was not refreshed by construction")
	}

	report, err := a.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Captured) != 1 || report.Captured[0] != 3 {
		t.Errorf("Captured = %v, want [3]", report.Captured)
	}
}
