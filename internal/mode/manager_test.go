package mode

import (
	"errors"
	"testing"
)

// recordingMode records Enter/Exit calls for transition assertions.
type recordingMode struct {
	name  string
	calls *[]string
}

func (m *recordingMode) Name() string        { return m.name }
func (m *recordingMode) DisplayName() string { return m.name }

func (m *recordingMode) Enter(ctx *Context) error {
	*m.calls = append(*m.calls, "enter:"+m.name+"<"+ctx.PreviousMode)
	return nil
}

func (m *recordingMode) Exit(ctx *Context) error {
	*m.calls = append(*m.calls, "exit:"+m.name+">"+ctx.NextMode)
	return nil
}

func newTestManager(calls *[]string) *Manager {
	mgr := NewManager()
	mgr.Register(&recordingMode{name: ModeObject, calls: calls})
	mgr.Register(&recordingMode{name: ModeEdit, calls: calls})
	return mgr
}

func TestSwitchCallsExitThenEnter(t *testing.T) {
	var calls []string
	mgr := newTestManager(&calls)

	if err := mgr.SetInitialMode(ModeObject); err != nil {
		t.Fatalf("SetInitialMode: %v", err)
	}
	calls = calls[:0]

	if err := mgr.Switch(ModeEdit); err != nil {
		t.Fatalf("Switch: %v", err)
	}

	want := []string{"exit:object>edit", "enter:edit<object"}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	if !mgr.IsMode(ModeEdit) {
		t.Error("expected current mode edit")
	}
	if mgr.Previous() == nil || mgr.Previous().Name() != ModeObject {
		t.Error("expected previous mode object")
	}
}

func TestSwitchToSelfReenters(t *testing.T) {
	var calls []string
	mgr := newTestManager(&calls)
	if err := mgr.SetInitialMode(ModeEdit); err != nil {
		t.Fatalf("SetInitialMode: %v", err)
	}
	calls = calls[:0]

	if err := mgr.Switch(ModeEdit); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("self switch should exit and re-enter, got %v", calls)
	}
}

func TestSwitchUnknownMode(t *testing.T) {
	var calls []string
	mgr := newTestManager(&calls)

	err := mgr.Switch("sculpt")
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
	if err := mgr.SetInitialMode("sculpt"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode from SetInitialMode, got %v", err)
	}
}

func TestSetInitialModeSkipsExit(t *testing.T) {
	var calls []string
	mgr := newTestManager(&calls)

	if err := mgr.SetInitialMode(ModeObject); err != nil {
		t.Fatalf("SetInitialMode: %v", err)
	}

	if len(calls) != 1 || calls[0] != "enter:object<" {
		t.Errorf("calls = %v, want single enter with no previous", calls)
	}
	if mgr.CurrentName() != ModeObject {
		t.Errorf("CurrentName = %q", mgr.CurrentName())
	}
}

func TestOnChangeCallback(t *testing.T) {
	var calls []string
	mgr := newTestManager(&calls)
	mgr.SetInitialMode(ModeObject)

	var got []string
	unregister := mgr.OnChange(func(from, to Mode) {
		got = append(got, from.Name()+"->"+to.Name())
	})

	mgr.Switch(ModeEdit)
	if len(got) != 1 || got[0] != "object->edit" {
		t.Errorf("callback saw %v", got)
	}

	unregister()
	mgr.Switch(ModeObject)
	if len(got) != 1 {
		t.Errorf("unregistered callback still called: %v", got)
	}
}

func TestIsAnyMode(t *testing.T) {
	var calls []string
	mgr := newTestManager(&calls)
	mgr.SetInitialMode(ModeEdit)

	if !mgr.IsAnyMode(ModeObject, ModeEdit) {
		t.Error("expected IsAnyMode to match edit")
	}
	if mgr.IsAnyMode("sculpt", "paint") {
		t.Error("expected no match")
	}
}

// failingMode rejects transitions to exercise error propagation.
type failingMode struct{ enterErr, exitErr error }

func (m *failingMode) Name() string            { return "failing" }
func (m *failingMode) DisplayName() string     { return "Failing" }
func (m *failingMode) Enter(*Context) error    { return m.enterErr }
func (m *failingMode) Exit(ctx *Context) error { return m.exitErr }

func TestSwitchEnterErrorKeepsCurrent(t *testing.T) {
	var calls []string
	mgr := newTestManager(&calls)
	mgr.Register(&failingMode{enterErr: errors.New("no entry")})
	mgr.SetInitialMode(ModeObject)

	if err := mgr.Switch("failing"); err == nil {
		t.Fatal("expected enter error")
	}
	if !mgr.IsMode(ModeObject) {
		t.Errorf("mode changed despite enter failure: %s", mgr.CurrentName())
	}
}
