package mesh

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/meshstorm/internal/engine/geom"
)

// Element is the capability set shared by vertices, edges and faces.
// All collections expose their elements through this interface so callers
// can work per kind without knowing the concrete type.
type Element interface {
	// Index returns the element's stored index. It matches the element's
	// position in native iteration order until a removal makes it stale;
	// EnsureLookupTable renumbers.
	Index() int

	// Selected returns the element's selection flag.
	Selected() bool

	// SetSelected sets the element's selection flag.
	SetSelected(selected bool)
}

// Vertex is a mesh vertex: a position, an optional color, and selection state.
type Vertex struct {
	// Co is the vertex position.
	Co geom.Vec3

	// Col is the vertex color. New vertices are white.
	Col colorful.Color

	index    int
	selected bool
}

// Index implements Element.
func (v *Vertex) Index() int { return v.index }

// Selected implements Element.
func (v *Vertex) Selected() bool { return v.selected }

// SetSelected implements Element.
func (v *Vertex) SetSelected(selected bool) { v.selected = selected }

// Edge connects two vertices, referenced by vertex index.
type Edge struct {
	// V holds the two endpoint vertex indices.
	V [2]int

	index    int
	selected bool
}

// Index implements Element.
func (e *Edge) Index() int { return e.index }

// Selected implements Element.
func (e *Edge) Selected() bool { return e.selected }

// SetSelected implements Element.
func (e *Edge) SetSelected(selected bool) { e.selected = selected }

// Other returns the endpoint of e that is not v, and true if v is an
// endpoint of e at all.
func (e *Edge) Other(v int) (int, bool) {
	switch v {
	case e.V[0]:
		return e.V[1], true
	case e.V[1]:
		return e.V[0], true
	default:
		return -1, false
	}
}

// Face is a planar polygon referencing three or more vertices in loop order.
type Face struct {
	// Verts holds the vertex indices of the face loop.
	Verts []int

	index    int
	selected bool
}

// Index implements Element.
func (f *Face) Index() int { return f.index }

// Selected implements Element.
func (f *Face) Selected() bool { return f.selected }

// SetSelected implements Element.
func (f *Face) SetSelected(selected bool) { f.selected = selected }

// Contains returns true if v is one of the face's vertices.
func (f *Face) Contains(v int) bool {
	for _, fv := range f.Verts {
		if fv == v {
			return true
		}
	}
	return false
}
