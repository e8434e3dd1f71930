package mesh

import "github.com/dshills/meshstorm/internal/engine/geom"

// ensureAll refreshes every lookup table so a freshly built primitive
// starts out index-addressable.
func (m *Mesh) ensureAll() *Mesh {
	for _, k := range Kinds {
		m.Collection(k).EnsureLookupTable()
	}
	return m
}

// NewCube builds an axis-aligned cube centered on the origin with the
// given edge length: 8 vertices, 12 edges, 6 quads with outward normals.
func NewCube(size float64) *Mesh {
	m := New("Cube")
	h := size / 2
	for _, co := range []geom.Vec3{
		{X: -h, Y: -h, Z: -h},
		{X: h, Y: -h, Z: -h},
		{X: h, Y: h, Z: -h},
		{X: -h, Y: h, Z: -h},
		{X: -h, Y: -h, Z: h},
		{X: h, Y: -h, Z: h},
		{X: h, Y: h, Z: h},
		{X: -h, Y: h, Z: h},
	} {
		m.AddVertex(co)
	}
	for _, loop := range [][]int{
		{0, 3, 2, 1},
		{4, 5, 6, 7},
		{0, 1, 5, 4},
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 0, 4, 7},
	} {
		if _, err := m.AddFace(loop...); err != nil {
			panic("mesh: cube construction: " + err.Error())
		}
	}
	return m.ensureAll()
}

// NewGrid builds a flat nx by ny quad grid in the XY plane, centered on
// the origin, spanning size units on each axis.
func NewGrid(nx, ny int, size float64) *Mesh {
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	m := New("Grid")
	sx := size / float64(nx)
	sy := size / float64(ny)
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.AddVertex(geom.Vec3{
				X: -size/2 + float64(i)*sx,
				Y: -size/2 + float64(j)*sy,
			})
		}
	}
	row := nx + 1
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := j*row + i
			if _, err := m.AddFace(a, a+1, a+1+row, a+row); err != nil {
				panic("mesh: grid construction: " + err.Error())
			}
		}
	}
	return m.ensureAll()
}

// NewPlane builds a single quad in the XY plane centered on the origin.
func NewPlane(size float64) *Mesh {
	m := NewGrid(1, 1, size)
	m.Name = "Plane"
	return m
}
