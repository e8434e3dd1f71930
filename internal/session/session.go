// Package session runs the interactive terminal view: a scrolling
// table of the edit mesh's elements with vim-style movement, selection
// editing through the operator dispatcher, per-element applier runs
// from the configured preset, and a status line fed by the event bus.
// Configuration reloads take effect live.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/dshills/meshstorm/internal/applier"
	"github.com/dshills/meshstorm/internal/config"
	"github.com/dshills/meshstorm/internal/engine"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/event"
	"github.com/dshills/meshstorm/internal/logging"
	"github.com/dshills/meshstorm/internal/meshio"
	"github.com/dshills/meshstorm/internal/operator"
)

// Errors returned by session construction.
var (
	// ErrNoEngine indicates the session was built without an engine.
	ErrNoEngine = errors.New("session: engine required")

	// ErrNoObject indicates the scene has nothing to edit.
	ErrNoObject = errors.New("session: no object to edit")
)

// Config wires a session to the rest of the application. Engine and
// Conf are required; the zero values of the rest default sensibly.
type Config struct {
	Engine *engine.Engine
	Conf   *config.Config
	Events *event.Bus
	Logger *logging.Logger

	// Screen overrides the tcell screen, letting tests run against a
	// simulation screen. Nil opens the real terminal.
	Screen tcell.Screen

	// OutPath is where the write command saves the mesh.
	OutPath string
}

// update is posted as a tcell interrupt so work queued from other
// goroutines executes on the event-loop goroutine.
type update func(*Session)

// Session drives one interactive editing view over the engine's
// active object.
type Session struct {
	id      string
	eng     *engine.Engine
	cfg     *config.Config
	bus     *event.Bus
	log     *logging.Logger
	scr     tcell.Screen
	theme   theme
	outPath string

	kind   mesh.ElementKind
	cursor int
	offset int
	status string
	preset config.ApplierConfig

	offs      []func()
	closeOnce sync.Once
}

// New validates the wiring, takes the engine into edit mode on the
// active object, initializes the screen and draws the first frame.
// Callers own the returned session until Run returns; Close is safe
// to call regardless.
func New(cfg Config) (*Session, error) {
	if cfg.Engine == nil {
		return nil, ErrNoEngine
	}
	if cfg.Engine.ActiveObject() == nil {
		return nil, ErrNoObject
	}
	if cfg.Conf == nil {
		cfg.Conf = config.New()
	}
	if cfg.Events == nil {
		cfg.Events = cfg.Engine.Events()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	scr := cfg.Screen
	if scr == nil {
		real, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("session: open terminal: %w", err)
		}
		scr = real
	}

	s := &Session{
		id:      uuid.NewString(),
		eng:     cfg.Engine,
		cfg:     cfg.Conf,
		bus:     cfg.Events,
		log:     cfg.Logger.WithComponent("session"),
		scr:     scr,
		theme:   newTheme(cfg.Conf.Session().Theme),
		outPath: cfg.OutPath,
		preset:  cfg.Conf.Applier(),
		status:  "ready",
	}
	if kind, err := mesh.ParseKind(s.preset.Kind); err == nil {
		s.kind = kind
	} else {
		s.kind = mesh.KindFaces
	}

	if s.eng.Mode() != engine.ModeEdit {
		if err := s.eng.SetMode(engine.ModeEdit); err != nil {
			return nil, err
		}
	}

	if err := s.scr.Init(); err != nil {
		return nil, fmt.Errorf("session: init screen: %w", err)
	}
	s.scr.SetStyle(s.theme.base)
	s.scr.HideCursor()

	s.subscribe()
	s.log.Info("session %s started on %s", s.id, s.eng.ActiveObject().Name)
	s.draw()
	return s, nil
}

// subscribe registers the bus and reload handlers that keep the
// status line and preset current. Handlers may fire on foreign
// goroutines, so they only post updates back to the event loop.
func (s *Session) subscribe() {
	off := s.bus.Subscribe("applier.run.*", func(ev event.Event) {
		text := runEventText(ev)
		s.post(func(s *Session) { s.status = text })
	})
	s.offs = append(s.offs, off)

	off = s.cfg.OnReload(func(c *config.Config) {
		preset := c.Applier()
		th := newTheme(c.Session().Theme)
		s.post(func(s *Session) {
			s.preset = preset
			s.theme = th
			s.scr.SetStyle(s.theme.base)
			s.status = "configuration reloaded"
		})
	})
	s.offs = append(s.offs, off)
}

// post schedules fn on the event-loop goroutine. Safe from any
// goroutine; drops if the event queue is full.
func (s *Session) post(fn func(*Session)) {
	_ = s.scr.PostEvent(tcell.NewEventInterrupt(update(fn)))
}

// Run owns the event loop until the user quits or the screen dies.
// It finalizes the screen on the way out.
func (s *Session) Run() error {
	defer s.Close()
	for {
		ev := s.scr.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			if s.handleKey(ev) {
				return nil
			}
		case *tcell.EventResize:
			s.scr.Sync()
		case *tcell.EventInterrupt:
			if fn, ok := ev.Data().(update); ok {
				fn(s)
			}
		}
		s.draw()
	}
}

// Close unhooks the handlers and restores the terminal. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, off := range s.offs {
			off()
		}
		s.scr.Fini()
		s.log.Info("session %s closed", s.id)
	})
}

// handleKey reacts to one key event; true means quit.
func (s *Session) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		s.move(-1)
	case tcell.KeyDown:
		s.move(1)
	case tcell.KeyPgUp:
		s.move(-s.pageSize())
	case tcell.KeyPgDn:
		s.move(s.pageSize())
	case tcell.KeyHome:
		s.moveTo(0)
	case tcell.KeyEnd:
		s.moveTo(s.collection().Len() - 1)
	case tcell.KeyTab:
		s.cycleKind()
	case tcell.KeyEnter:
		s.runApplier()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'j':
			s.move(1)
		case 'k':
			s.move(-1)
		case 'g':
			s.moveTo(0)
		case 'G':
			s.moveTo(s.collection().Len() - 1)
		case ' ':
			s.toggle()
		case 'a':
			s.selectAllAction("SELECT")
		case 'n':
			s.selectAllAction("DESELECT")
		case 'i':
			s.selectAllAction("INVERT")
		case 'v':
			s.setKind(mesh.KindVerts)
		case 'e':
			s.setKind(mesh.KindEdges)
		case 'f':
			s.setKind(mesh.KindFaces)
		case 'r':
			s.runApplier()
		case 'w':
			s.saveMesh()
		}
	}
	return false
}

// collection returns the current kind's collection on the edit mesh.
func (s *Session) collection() mesh.Collection {
	return s.eng.CurrentEditMesh().Collection(s.kind)
}

func (s *Session) move(delta int) {
	s.moveTo(s.cursor + delta)
}

func (s *Session) moveTo(i int) {
	n := s.collection().Len()
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	s.cursor = i
}

func (s *Session) cycleKind() {
	switch s.kind {
	case mesh.KindVerts:
		s.setKind(mesh.KindEdges)
	case mesh.KindEdges:
		s.setKind(mesh.KindFaces)
	default:
		s.setKind(mesh.KindVerts)
	}
}

func (s *Session) setKind(kind mesh.ElementKind) {
	s.kind = kind
	s.cursor = 0
	s.offset = 0
}

// toggle flips the selection flag under the cursor.
func (s *Session) toggle() {
	coll := s.collection()
	if coll.Len() == 0 {
		return
	}
	coll.EnsureLookupTable()
	sel, err := coll.Selected(s.cursor)
	if err != nil {
		s.status = err.Error()
		return
	}
	if err := coll.Select(s.cursor, !sel); err != nil {
		s.status = err.Error()
		return
	}
	s.emitSelection()
}

// selectAllAction routes bulk selection through the dispatcher so it
// behaves exactly like a scripted mesh.selectAll.
func (s *Session) selectAllAction(action string) {
	res := s.eng.Invoke("mesh.selectAll", operator.Params{"action": action}, operator.SourceSession)
	if res.Status == operator.StatusError {
		s.status = res.Error.Error()
		return
	}
	s.status = fmt.Sprintf("selection: %s", action)
	s.emitSelection()
}

func (s *Session) emitSelection() {
	if s.bus == nil {
		return
	}
	s.bus.Emit(event.TopicSelectionChanged, "session", map[string]any{
		"kind":     s.kind.String(),
		"selected": len(s.collection().SelectedIndices()),
	})
}

// runApplier applies the preset operator to each selected element of
// the current kind. Progress reaches the status line over the bus.
func (s *Session) runApplier() {
	ap, err := applier.New(s.eng.Host(), applier.Config{
		Kind:     s.kind,
		Operator: s.preset.Operator,
		Params:   s.preset.Params,
		Events:   s.bus,
		Logger:   s.log,
	})
	if err != nil {
		s.status = err.Error()
		return
	}
	rep, err := ap.Run()
	if err != nil {
		s.status = err.Error()
		s.moveTo(s.cursor)
		return
	}
	s.status = fmt.Sprintf("%s: applied %d of %d %s in %s",
		rep.Operator, len(rep.Applied), len(rep.Captured), rep.Kind,
		rep.Elapsed.Round(time.Millisecond))
	s.moveTo(s.cursor)
}

// saveMesh flushes pending edits and writes the active object.
func (s *Session) saveMesh() {
	if s.outPath == "" {
		s.status = "no output path (start with -out)"
		return
	}
	if err := s.eng.FlushEdit(); err != nil {
		s.status = err.Error()
		return
	}
	if err := meshio.Save(s.outPath, s.eng.ActiveObject().Data); err != nil {
		s.status = err.Error()
		return
	}
	s.status = fmt.Sprintf("wrote %s", s.outPath)
}

// runEventText renders an applier progress event for the status line.
func runEventText(ev event.Event) string {
	d := ev.Data
	switch ev.Type {
	case event.TopicRunStarted:
		return fmt.Sprintf("running %v on %v %v", d["operator"], d["captured"], d["kind"])
	case event.TopicRunStep:
		return fmt.Sprintf("step %v/%v (element %v)", d["step"], d["total"], d["index"])
	case event.TopicRunFinished:
		return fmt.Sprintf("applied %v, restored %v in %vms", d["applied"], d["restored"], d["elapsed_ms"])
	default:
		return string(ev.Type)
	}
}
