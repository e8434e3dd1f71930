package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/meshstorm/internal/engine/mesh"
)

// Object pairs a name with mesh data. The Data mesh is the persistent
// object-mode state; edit mode works on a separate copy.
type Object struct {
	Name string
	Data *mesh.Mesh
}

// Scene holds the objects of a session and tracks which one is active.
// All operations are safe for concurrent use.
type Scene struct {
	mu      sync.RWMutex
	objects map[string]*Object
	active  string
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{objects: make(map[string]*Object)}
}

// Add inserts an object into the scene. The first object added becomes
// the active object.
func (s *Scene) Add(name string, data *mesh.Mesh) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectExists, name)
	}
	obj := &Object{Name: name, Data: data}
	s.objects[name] = obj
	if s.active == "" {
		s.active = name
	}
	return obj, nil
}

// Remove deletes an object from the scene. Removing the active object
// clears the active slot.
func (s *Scene) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	delete(s.objects, name)
	if s.active == name {
		s.active = ""
	}
	return nil
}

// Get looks up an object by name.
func (s *Scene) Get(name string) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	return obj, ok
}

// Active returns the active object, or nil when none is set.
func (s *Scene) Active() *Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return nil
	}
	return s.objects[s.active]
}

// ActiveObjectName returns the name of the active object, or "".
func (s *Scene) ActiveObjectName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveObject makes the named object active.
func (s *Scene) SetActiveObject(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, name)
	}
	s.active = name
	return nil
}

// ObjectNames returns the object names in sorted order.
func (s *Scene) ObjectNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of objects in the scene.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
