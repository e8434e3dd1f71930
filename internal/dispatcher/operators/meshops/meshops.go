// Package meshops provides the builtin mesh editing operators.
// Every operator acts on the selected elements of the current edit-mesh,
// mirroring how interactive mesh tools work.
package meshops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/meshstorm/internal/engine/geom"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/operator"
	"github.com/dshills/meshstorm/internal/operator/opctx"
)

// Operator names for mesh operations.
const (
	OpSelectAll     = "mesh.selectAll"     // select/deselect/invert everything
	OpInset         = "mesh.inset"         // inset selected faces
	OpExtrudeRegion = "mesh.extrudeRegion" // extrude selected faces
	OpDelete        = "mesh.delete"        // delete selected elements
	OpSmooth        = "mesh.smooth"        // relax selected vertices
	OpSubdivide     = "mesh.subdivide"     // subdivide selected faces
	OpColorize      = "mesh.colorize"      // recolor selected vertices
)

// ErrNoEditMesh indicates a mesh operator ran with no edit-mesh available.
var ErrNoEditMesh = errors.New("meshops: no edit-mesh")

// Operators handles the mesh operator category.
type Operators struct{}

// New creates the mesh category operators.
func New() *Operators {
	return &Operators{}
}

// Category returns the mesh category.
func (o *Operators) Category() string {
	return "mesh"
}

// CanInvoke returns true if this handler can process the invocation.
func (o *Operators) CanInvoke(name string) bool {
	switch name {
	case OpSelectAll, OpInset, OpExtrudeRegion, OpDelete,
		OpSmooth, OpSubdivide, OpColorize:
		return true
	}
	return false
}

// Ops lists the operator names this category handles.
func (o *Operators) Ops() []string {
	return []string{
		OpSelectAll, OpInset, OpExtrudeRegion, OpDelete,
		OpSmooth, OpSubdivide, OpColorize,
	}
}

// InvokeOp processes a mesh invocation.
func (o *Operators) InvokeOp(req operator.Request, ctx *opctx.Context) operator.Result {
	if ctx.Mesh == nil {
		return operator.Error(fmt.Errorf("%w: %s requires edit mode", ErrNoEditMesh, req.Name))
	}

	switch req.Name {
	case OpSelectAll:
		return o.selectAll(req, ctx.Mesh)
	case OpInset:
		return o.inset(req, ctx.Mesh)
	case OpExtrudeRegion:
		return o.extrudeRegion(req, ctx.Mesh)
	case OpDelete:
		return o.delete(req, ctx.Mesh)
	case OpSmooth:
		return o.smooth(req, ctx.Mesh)
	case OpSubdivide:
		return o.subdivide(req, ctx.Mesh)
	case OpColorize:
		return o.colorize(req, ctx.Mesh)
	default:
		return operator.Errorf("unknown mesh operator: %s", req.Name)
	}
}

// selectAll changes the selection of every element at once.
// The action parameter is SELECT, DESELECT or INVERT.
func (o *Operators) selectAll(req operator.Request, m *mesh.Mesh) operator.Result {
	action := strings.ToUpper(req.Params.Str("action", "SELECT"))
	switch action {
	case "SELECT":
		m.SelectAllElements()
	case "DESELECT":
		m.DeselectAll()
	case "INVERT":
		m.InvertSelection()
	default:
		return operator.Errorf("mesh.selectAll: unknown action %q", action)
	}
	return operator.Success()
}

// selectedFaces snapshots the selected faces before mutation.
func selectedFaces(m *mesh.Mesh) []*mesh.Face {
	var out []*mesh.Face
	m.Collection(mesh.KindFaces).ForEach(func(el mesh.Element) {
		if el.Selected() {
			out = append(out, el.(*mesh.Face))
		}
	})
	return out
}

// inset shrinks each selected face toward its centroid, building a rim of
// quads between the original boundary and a new inner face. The inner
// region stays selected.
func (o *Operators) inset(req operator.Request, m *mesh.Mesh) operator.Result {
	thickness := req.Params.Float("thickness", 0.01)
	if thickness < 0 {
		return operator.Errorf("mesh.inset: negative thickness %v", thickness)
	}

	faces := selectedFaces(m)
	if len(faces) == 0 {
		return operator.NoOpWithMessage("mesh.inset: no selected faces")
	}

	var delta operator.Delta
	for _, f := range faces {
		corners := append([]int(nil), f.Verts...)
		n := len(corners)
		centroid := m.FaceCentroid(f)

		inner := make([]int, n)
		for i, c := range corners {
			co := m.Vert(c).Co
			dir := centroid.Sub(co)
			dist := dir.Len()
			t := thickness
			if t >= dist {
				t = dist * 0.99
			}
			v := m.AddVertex(co.Add(dir.Normalized().Scale(t)))
			v.SetSelected(true)
			inner[i] = v.Index()
		}

		m.DeleteFaces(func(x *mesh.Face) bool { return x == f })
		for i := 0; i < n; i++ {
			if _, err := m.AddFace(corners[i], corners[(i+1)%n], inner[(i+1)%n], inner[i]); err != nil {
				return operator.Error(fmt.Errorf("mesh.inset: rim quad: %w", err))
			}
		}
		innerFace, err := m.AddFace(inner...)
		if err != nil {
			return operator.Error(fmt.Errorf("mesh.inset: inner face: %w", err))
		}
		innerFace.SetSelected(true)

		delta = delta.Add(operator.Delta{
			VertsAdded:   n,
			EdgesAdded:   2 * n,
			FacesAdded:   n + 1,
			FacesRemoved: 1,
		})
	}

	return operator.Success().WithDelta(delta)
}

// extrudeRegion lifts each selected face along a translation vector,
// walling the gap with quads. The new cap stays selected; the original
// boundary is deselected.
func (o *Operators) extrudeRegion(req operator.Request, m *mesh.Mesh) operator.Result {
	var offset geom.Vec3
	if t := req.Params.Floats("translate"); len(t) == 3 {
		offset = geom.Vec3{X: t[0], Y: t[1], Z: t[2]}
	} else if t != nil {
		return operator.Errorf("mesh.extrudeRegion: translate needs 3 components, got %d", len(t))
	}

	faces := selectedFaces(m)
	if len(faces) == 0 {
		return operator.NoOpWithMessage("mesh.extrudeRegion: no selected faces")
	}

	var delta operator.Delta
	for _, f := range faces {
		corners := append([]int(nil), f.Verts...)
		n := len(corners)

		top := make([]int, n)
		for i, c := range corners {
			v := m.AddVertex(m.Vert(c).Co.Add(offset))
			v.SetSelected(true)
			top[i] = v.Index()
		}

		m.DeleteFaces(func(x *mesh.Face) bool { return x == f })
		for i := 0; i < n; i++ {
			if _, err := m.AddFace(corners[i], corners[(i+1)%n], top[(i+1)%n], top[i]); err != nil {
				return operator.Error(fmt.Errorf("mesh.extrudeRegion: wall quad: %w", err))
			}
		}
		capFace, err := m.AddFace(top...)
		if err != nil {
			return operator.Error(fmt.Errorf("mesh.extrudeRegion: cap face: %w", err))
		}
		capFace.SetSelected(true)

		for _, c := range corners {
			m.Vert(c).SetSelected(false)
		}

		delta = delta.Add(operator.Delta{
			VertsAdded:   n,
			EdgesAdded:   2 * n,
			FacesAdded:   n + 1,
			FacesRemoved: 1,
		})
	}

	return operator.Success().WithDelta(delta)
}

// delete removes the selected elements of one kind. The type parameter is
// VERT, EDGE or FACE. Dependent elements cascade.
func (o *Operators) delete(req operator.Request, m *mesh.Mesh) operator.Result {
	kind := strings.ToUpper(req.Params.Str("type", "VERT"))

	nv, ne, nf := m.Counts()
	var removed int
	switch kind {
	case "VERT":
		removed = m.DeleteVerts(func(v *mesh.Vertex) bool { return v.Selected() })
	case "EDGE":
		removed = m.DeleteEdges(func(e *mesh.Edge) bool { return e.Selected() })
	case "FACE":
		removed = m.DeleteFaces(func(f *mesh.Face) bool { return f.Selected() })
	default:
		return operator.Errorf("mesh.delete: unknown type %q", kind)
	}
	if removed == 0 {
		return operator.NoOpWithMessage("mesh.delete: nothing selected")
	}

	av, ae, af := m.Counts()
	return operator.Success().WithDelta(operator.Delta{
		VertsRemoved: nv - av,
		EdgesRemoved: ne - ae,
		FacesRemoved: nf - af,
	})
}

// smooth relaxes each selected vertex toward the average of its edge
// neighbors. The factor parameter blends between the current position (0)
// and the neighbor average (1); iterations repeats the pass.
func (o *Operators) smooth(req operator.Request, m *mesh.Mesh) operator.Result {
	factor := req.Params.Float("factor", 0.5)
	if factor < 0 || factor > 1 {
		return operator.Errorf("mesh.smooth: factor %v out of [0, 1]", factor)
	}
	iterations := req.Params.Int("iterations", 1)
	if iterations < 1 {
		return operator.Errorf("mesh.smooth: iterations %d < 1", iterations)
	}

	moved := make(map[int]bool)
	for it := 0; it < iterations; it++ {
		next := make(map[int]geom.Vec3)
		pos := 0
		m.Collection(mesh.KindVerts).ForEach(func(el mesh.Element) {
			p := pos
			pos++
			if !el.Selected() {
				return
			}
			neighbors := m.VertexNeighbors(p)
			if len(neighbors) == 0 {
				return
			}
			pts := make([]geom.Vec3, len(neighbors))
			for i, nb := range neighbors {
				pts[i] = m.Vert(nb).Co
			}
			next[p] = m.Vert(p).Co.Lerp(geom.Centroid(pts), factor)
		})
		for p, co := range next {
			m.Vert(p).Co = co
			moved[p] = true
		}
	}

	if len(moved) == 0 {
		return operator.NoOpWithMessage("mesh.smooth: no selected vertices with neighbors")
	}
	return operator.Success().WithDelta(operator.Delta{Moved: len(moved)})
}

// subdivide splits each selected face into one quad per corner using edge
// midpoints and the face centroid. Original boundary edges left unused by
// any face are dropped; edges still bounding unselected neighbors remain.
// The cuts parameter repeats the pass.
func (o *Operators) subdivide(req operator.Request, m *mesh.Mesh) operator.Result {
	cuts := req.Params.Int("cuts", 1)
	if cuts < 1 {
		return operator.Errorf("mesh.subdivide: cuts %d < 1", cuts)
	}

	nv, ne, nf := m.Counts()
	worked := false
	for c := 0; c < cuts; c++ {
		faces := selectedFaces(m)
		if len(faces) == 0 {
			break
		}
		worked = true

		midOf := make(map[[2]int]int)
		for _, f := range faces {
			if res := subdivideFace(m, f, midOf); res.IsError() {
				return res
			}
		}

		// Drop original spanning edges nothing uses anymore.
		for pair := range midOf {
			if len(m.FacesUsingEdge(pair[0], pair[1])) == 0 {
				m.DeleteEdges(func(e *mesh.Edge) bool {
					return (e.V[0] == pair[0] && e.V[1] == pair[1]) ||
						(e.V[0] == pair[1] && e.V[1] == pair[0])
				})
			}
		}
	}
	if !worked {
		return operator.NoOpWithMessage("mesh.subdivide: no selected faces")
	}

	// Report net counts; subdivision always grows verts and faces.
	av, ae, af := m.Counts()
	delta := operator.Delta{VertsAdded: av - nv, FacesAdded: af - nf}
	if ae >= ne {
		delta.EdgesAdded = ae - ne
	} else {
		delta.EdgesRemoved = ne - ae
	}
	return operator.Success().WithDelta(delta)
}

// subdivideFace replaces one face with a quad fan around its centroid.
func subdivideFace(m *mesh.Mesh, f *mesh.Face, midOf map[[2]int]int) operator.Result {
	corners := append([]int(nil), f.Verts...)
	n := len(corners)

	center := m.AddVertex(m.FaceCentroid(f))
	center.SetSelected(true)

	mids := make([]int, n)
	for i := 0; i < n; i++ {
		a, b := corners[i], corners[(i+1)%n]
		key := [2]int{a, b}
		if a > b {
			key = [2]int{b, a}
		}
		mid, ok := midOf[key]
		if !ok {
			v := m.AddVertex(m.Vert(a).Co.Lerp(m.Vert(b).Co, 0.5))
			v.SetSelected(true)
			mid = v.Index()
			midOf[key] = mid
		}
		mids[i] = mid
	}

	m.DeleteFaces(func(x *mesh.Face) bool { return x == f })
	for i := 0; i < n; i++ {
		prev := (i + n - 1) % n
		quad, err := m.AddFace(corners[i], mids[i], center.Index(), mids[prev])
		if err != nil {
			return operator.Error(fmt.Errorf("mesh.subdivide: corner quad: %w", err))
		}
		quad.SetSelected(true)
	}
	return operator.Success()
}

// colorize paints the selected vertices with an HSL color.
func (o *Operators) colorize(req operator.Request, m *mesh.Mesh) operator.Result {
	hue := req.Params.Float("hue", 0)
	sat := req.Params.Float("saturation", 0.8)
	lum := req.Params.Float("luminance", 0.5)
	if hue < 0 || hue >= 360 {
		return operator.Errorf("mesh.colorize: hue %v out of [0, 360)", hue)
	}
	if sat < 0 || sat > 1 || lum < 0 || lum > 1 {
		return operator.Errorf("mesh.colorize: saturation/luminance out of [0, 1]")
	}

	col := colorful.Hsl(hue, sat, lum)
	recolored := 0
	m.Collection(mesh.KindVerts).ForEach(func(el mesh.Element) {
		if v, ok := el.(*mesh.Vertex); ok && v.Selected() {
			v.Col = col
			recolored++
		}
	})
	if recolored == 0 {
		return operator.NoOpWithMessage("mesh.colorize: no selected vertices")
	}
	return operator.Success().WithDelta(operator.Delta{Recolored: recolored})
}
