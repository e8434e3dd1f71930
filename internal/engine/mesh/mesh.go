package mesh

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/meshstorm/internal/engine/geom"
)

// Mesh is an editable polygon mesh: vertices, edges and faces in native
// (insertion) order, each with a stored index and a selection flag.
type Mesh struct {
	// Name identifies the mesh, usually the owning object's data name.
	Name string

	verts []*Vertex
	edges []*Edge
	faces []*Face

	// lookupValid tracks per-kind lookup table validity. Any topology
	// mutation of a kind clears its flag; EnsureLookupTable restores it.
	lookupValid [3]bool

	// generation increments on every topology mutation.
	generation uint64
}

// New creates an empty mesh with the given name.
func New(name string) *Mesh {
	m := &Mesh{Name: name}
	m.lookupValid = [3]bool{true, true, true}
	return m
}

// Generation returns the topology generation counter. It increments on
// every mutation that adds or removes elements; selection changes do not
// affect it.
func (m *Mesh) Generation() uint64 { return m.generation }

// Counts returns the number of vertices, edges and faces.
func (m *Mesh) Counts() (verts, edges, faces int) {
	return len(m.verts), len(m.edges), len(m.faces)
}

// topologyChanged records a mutation of the given kinds.
func (m *Mesh) topologyChanged(kinds ...ElementKind) {
	m.generation++
	for _, k := range kinds {
		m.lookupValid[k] = false
	}
}

// AddVertex appends a vertex at the given position and returns it.
// The new vertex is white, deselected, and indexed at the end of the
// collection. The vertex lookup table becomes stale.
func (m *Mesh) AddVertex(co geom.Vec3) *Vertex {
	v := &Vertex{
		Co:    co,
		Col:   colorful.Color{R: 1, G: 1, B: 1},
		index: len(m.verts),
	}
	m.verts = append(m.verts, v)
	m.topologyChanged(KindVerts)
	return v
}

// LookupEdge returns the edge connecting vertices a and b, or nil.
func (m *Mesh) LookupEdge(a, b int) *Edge {
	for _, e := range m.edges {
		if (e.V[0] == a && e.V[1] == b) || (e.V[0] == b && e.V[1] == a) {
			return e
		}
	}
	return nil
}

// AddEdge connects two vertices by position index. If the edge already
// exists it is returned unchanged; otherwise a new edge is appended and
// the edge lookup table becomes stale.
func (m *Mesh) AddEdge(a, b int) (*Edge, error) {
	if a < 0 || a >= len(m.verts) || b < 0 || b >= len(m.verts) {
		return nil, fmt.Errorf("%w: edge (%d, %d) with %d verts", ErrVertexRange, a, b, len(m.verts))
	}
	if a == b {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrDegenerateEdge, a, b)
	}
	if existing := m.LookupEdge(a, b); existing != nil {
		return existing, nil
	}
	e := &Edge{V: [2]int{a, b}, index: len(m.edges)}
	m.edges = append(m.edges, e)
	m.topologyChanged(KindEdges)
	return e, nil
}

// AddFace appends a face over the given vertex loop. Boundary edges that
// do not exist yet are created. The face (and possibly edge) lookup
// tables become stale.
func (m *Mesh) AddFace(verts ...int) (*Face, error) {
	if len(verts) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrDegenerateFace, len(verts))
	}
	seen := make(map[int]bool, len(verts))
	for _, v := range verts {
		if v < 0 || v >= len(m.verts) {
			return nil, fmt.Errorf("%w: face vertex %d with %d verts", ErrVertexRange, v, len(m.verts))
		}
		if seen[v] {
			return nil, fmt.Errorf("%w: vertex %d repeated", ErrDegenerateFace, v)
		}
		seen[v] = true
	}

	loop := make([]int, len(verts))
	copy(loop, verts)
	for i := range loop {
		a, b := loop[i], loop[(i+1)%len(loop)]
		if _, err := m.AddEdge(a, b); err != nil {
			return nil, err
		}
	}

	f := &Face{Verts: loop, index: len(m.faces)}
	m.faces = append(m.faces, f)
	m.topologyChanged(KindFaces)
	return f, nil
}

// DeleteFaces removes every face matching the predicate and returns the
// number removed. Edges and vertices are left in place.
func (m *Mesh) DeleteFaces(match func(*Face) bool) int {
	kept := m.faces[:0]
	removed := 0
	for _, f := range m.faces {
		if match(f) {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	if removed > 0 {
		m.faces = kept
		m.topologyChanged(KindFaces)
	}
	return removed
}

// DeleteEdges removes every edge matching the predicate, plus any face
// whose boundary uses a removed edge. Returns the number of edges removed.
func (m *Mesh) DeleteEdges(match func(*Edge) bool) int {
	type pair struct{ a, b int }
	gone := make(map[pair]bool)

	kept := m.edges[:0]
	removed := 0
	for _, e := range m.edges {
		if match(e) {
			a, b := e.V[0], e.V[1]
			if a > b {
				a, b = b, a
			}
			gone[pair{a, b}] = true
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0
	}
	m.edges = kept

	usesGone := func(f *Face) bool {
		for i := range f.Verts {
			a, b := f.Verts[i], f.Verts[(i+1)%len(f.Verts)]
			if a > b {
				a, b = b, a
			}
			if gone[pair{a, b}] {
				return true
			}
		}
		return false
	}
	m.DeleteFaces(usesGone)
	m.topologyChanged(KindEdges)
	return removed
}

// DeleteVerts removes every vertex matching the predicate, remaps the
// vertex references of surviving edges and faces, and drops any edge or
// face that touched a removed vertex. Returns the number of vertices
// removed.
func (m *Mesh) DeleteVerts(match func(*Vertex) bool) int {
	remap := make([]int, len(m.verts))
	kept := m.verts[:0]
	removed := 0
	for i, v := range m.verts {
		if match(v) {
			remap[i] = -1
			removed++
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, v)
	}
	if removed == 0 {
		return 0
	}
	m.verts = kept

	keptEdges := m.edges[:0]
	for _, e := range m.edges {
		a, b := remap[e.V[0]], remap[e.V[1]]
		if a < 0 || b < 0 {
			continue
		}
		e.V[0], e.V[1] = a, b
		keptEdges = append(keptEdges, e)
	}
	m.edges = keptEdges

	keptFaces := m.faces[:0]
faces:
	for _, f := range m.faces {
		for i, v := range f.Verts {
			nv := remap[v]
			if nv < 0 {
				continue faces
			}
			f.Verts[i] = nv
		}
		keptFaces = append(keptFaces, f)
	}
	m.faces = keptFaces

	m.topologyChanged(KindVerts, KindEdges, KindFaces)
	return removed
}

// FaceCentroid returns the arithmetic mean of the face's vertex positions.
func (m *Mesh) FaceCentroid(f *Face) geom.Vec3 {
	pts := make([]geom.Vec3, len(f.Verts))
	for i, v := range f.Verts {
		pts[i] = m.verts[v].Co
	}
	return geom.Centroid(pts)
}

// FaceNormal returns the face normal computed with Newell's method.
// Degenerate faces yield the zero vector.
func (m *Mesh) FaceNormal(f *Face) geom.Vec3 {
	var n geom.Vec3
	for i := range f.Verts {
		cur := m.verts[f.Verts[i]].Co
		next := m.verts[f.Verts[(i+1)%len(f.Verts)]].Co
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n.Normalized()
}

// FacesUsingEdge returns the faces whose boundary walks the edge (a, b)
// in either direction.
func (m *Mesh) FacesUsingEdge(a, b int) []*Face {
	var out []*Face
	for _, f := range m.faces {
		for i := range f.Verts {
			p, q := f.Verts[i], f.Verts[(i+1)%len(f.Verts)]
			if (p == a && q == b) || (p == b && q == a) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// VertexNeighbors returns the positions of vertices connected to vi by an
// edge, in edge iteration order.
func (m *Mesh) VertexNeighbors(vi int) []int {
	var out []int
	for _, e := range m.edges {
		if other, ok := e.Other(vi); ok {
			out = append(out, other)
		}
	}
	return out
}

// Vert returns the vertex at position i without a staleness check.
// It is a structural accessor for operators that just iterated the
// collection; user-facing index lookup goes through Collection.At.
func (m *Mesh) Vert(i int) *Vertex { return m.verts[i] }

// Clone returns a deep copy of the mesh, including stored indices,
// selection flags, lookup validity and the generation counter.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:        m.Name,
		verts:       make([]*Vertex, len(m.verts)),
		edges:       make([]*Edge, len(m.edges)),
		faces:       make([]*Face, len(m.faces)),
		lookupValid: m.lookupValid,
		generation:  m.generation,
	}
	for i, v := range m.verts {
		cv := *v
		c.verts[i] = &cv
	}
	for i, e := range m.edges {
		ce := *e
		c.edges[i] = &ce
	}
	for i, f := range m.faces {
		cf := *f
		cf.Verts = make([]int, len(f.Verts))
		copy(cf.Verts, f.Verts)
		c.faces[i] = &cf
	}
	return c
}

// CopyInto replaces dst's elements and counters with deep copies of m's.
// It is the write-back half of the edit-mesh snapshot cycle.
func (m *Mesh) CopyInto(dst *Mesh) {
	c := m.Clone()
	dst.verts = c.verts
	dst.edges = c.edges
	dst.faces = c.faces
	dst.lookupValid = c.lookupValid
	dst.generation = c.generation
}

// Validate checks structural invariants: edge and face vertex references
// in range, no degenerate edges or faces.
func (m *Mesh) Validate() error {
	for i, e := range m.edges {
		if e.V[0] < 0 || e.V[0] >= len(m.verts) || e.V[1] < 0 || e.V[1] >= len(m.verts) {
			return fmt.Errorf("%w: edge %d references (%d, %d)", ErrVertexRange, i, e.V[0], e.V[1])
		}
		if e.V[0] == e.V[1] {
			return fmt.Errorf("%w: edge %d", ErrDegenerateEdge, i)
		}
	}
	for i, f := range m.faces {
		if len(f.Verts) < 3 {
			return fmt.Errorf("%w: face %d has %d", ErrDegenerateFace, i, len(f.Verts))
		}
		for _, v := range f.Verts {
			if v < 0 || v >= len(m.verts) {
				return fmt.Errorf("%w: face %d references %d", ErrVertexRange, i, v)
			}
		}
	}
	return nil
}
