package meshio_test

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/meshstorm/internal/engine/geom"
	"github.com/dshills/meshstorm/internal/engine/mesh"
	"github.com/dshills/meshstorm/internal/meshio"
)

func decode(t *testing.T, obj string) *mesh.Mesh {
	t.Helper()
	m, err := meshio.Decode(strings.NewReader(obj), "test")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return m
}

func TestDecodeTriangle(t *testing.T) {
	m := decode(t, `
# a triangle
o Tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`)

	if m.Name != "Tri" {
		t.Errorf("name = %q, want Tri", m.Name)
	}
	verts, edges, faces := m.Counts()
	if verts != 3 || edges != 3 || faces != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/3/1", verts, edges, faces)
	}
	if co := m.Vert(1).Co; co != (geom.Vec3{X: 1}) {
		t.Errorf("vert 1 at %v", co)
	}
}

func TestDecodeNameFallback(t *testing.T) {
	m := decode(t, "v 0 0 0\n")
	if m.Name != "test" {
		t.Errorf("name = %q, want the argument fallback", m.Name)
	}
}

func TestDecodeVertexColor(t *testing.T) {
	m := decode(t, `
v 0 0 0 1 0 0
v 1 0 0
v 0 1 0 0.5 0.5 0.5
f 1 2 3
`)

	if col := m.Vert(0).Col; col != (colorful.Color{R: 1}) {
		t.Errorf("vert 0 color = %v, want red", col)
	}
	// A colorless v statement leaves the default white.
	if col := m.Vert(1).Col; col != (colorful.Color{R: 1, G: 1, B: 1}) {
		t.Errorf("vert 1 color = %v, want white", col)
	}
}

func TestDecodeSlashAndNegativeRefs(t *testing.T) {
	m := decode(t, `
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1/1/1 2/2/2 3/3/3
f -3 -2 -1
`)

	_, _, faces := m.Counts()
	if faces != 2 {
		t.Fatalf("faces = %d, want 2", faces)
	}
	coll := m.Collection(mesh.KindFaces)
	el, err := coll.At(1)
	if err != nil {
		t.Fatalf("At(1): %v", err)
	}
	f := el.(*mesh.Face)
	want := []int{1, 2, 3}
	for i, v := range f.Verts {
		if v != want[i] {
			t.Errorf("face 1 loop = %v, want %v", f.Verts, want)
			break
		}
	}
}

func TestDecodeWireEdges(t *testing.T) {
	m := decode(t, `
v 0 0 0
v 1 0 0
v 2 0 0
l 1 2 3
`)

	_, edges, faces := m.Counts()
	if edges != 2 || faces != 0 {
		t.Errorf("counts = %d edges %d faces, want 2/0", edges, faces)
	}
}

func TestDecodeSkipsUnknownStatements(t *testing.T) {
	m := decode(t, `
mtllib things.mtl
v 0 0 0
vn 0 0 1
vt 0.5 0.5
v 1 0 0
s off
v 0 1 0
usemtl red
f 1 2 3
`)

	verts, _, faces := m.Counts()
	if verts != 3 || faces != 1 {
		t.Errorf("counts = %d verts %d faces, want 3/1", verts, faces)
	}
}

func TestDecodeReadyForLookup(t *testing.T) {
	m := decode(t, `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`)

	// Fresh decode must allow indexed access without an explicit
	// EnsureLookupTable from the caller.
	for _, k := range mesh.Kinds {
		if _, err := m.Collection(k).At(0); err != nil {
			t.Errorf("At(0) on %s after decode: %v", k, err)
		}
	}
	if got := m.Collection(mesh.KindVerts).SelectedIndices(); len(got) != 0 {
		t.Errorf("decoded mesh has selection %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		obj  string
		want error
	}{
		{"short vertex", "v 1 2\n", meshio.ErrSyntax},
		{"bad float", "v a b c\n", meshio.ErrSyntax},
		{"zero ref", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", meshio.ErrSyntax},
		{"face range", "v 0 0 0\nv 1 0 0\nf 1 2 9\n", mesh.ErrVertexRange},
		{"forward ref", "f 1 2 3\n", mesh.ErrVertexRange},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n", meshio.ErrSyntax},
		{"short line", "v 0 0 0\nl 1\n", meshio.ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := meshio.Decode(strings.NewReader(tt.obj), "bad")
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src := mesh.NewGrid(2, 2, 2)
	src.Name = "Patch"
	// One wire edge off the surface and one colored vertex.
	loose := src.AddVertex(geom.Vec3{Z: 2})
	if _, err := src.AddEdge(0, loose.Index()); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	src.Vert(0).Col = colorful.Color{R: 0.25, G: 0.5, B: 0.75}

	var buf strings.Builder
	if err := meshio.Encode(&buf, src); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := meshio.Decode(strings.NewReader(buf.String()), "ignored")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Name != "Patch" {
		t.Errorf("name = %q", got.Name)
	}
	sv, se, sf := src.Counts()
	gv, ge, gf := got.Counts()
	if gv != sv || ge != se || gf != sf {
		t.Errorf("counts = %d/%d/%d, want %d/%d/%d", gv, ge, gf, sv, se, sf)
	}
	for i := 0; i < gv; i++ {
		if !got.Vert(i).Co.NearEqual(src.Vert(i).Co, 1e-5) {
			t.Errorf("vert %d at %v, want %v", i, got.Vert(i).Co, src.Vert(i).Co)
		}
	}
	if c := got.Vert(0).Col; math.Abs(c.R-0.25) > 1e-3 || math.Abs(c.G-0.5) > 1e-3 || math.Abs(c.B-0.75) > 1e-3 {
		t.Errorf("vert 0 color = %v", c)
	}
	if got.LookupEdge(0, loose.Index()) == nil {
		t.Error("wire edge lost in round trip")
	}
}

func TestEncodeOmitsColorWhenAllWhite(t *testing.T) {
	var buf strings.Builder
	if err := meshio.Encode(&buf, mesh.NewPlane(1)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "v ") && len(strings.Fields(line)) != 4 {
			t.Errorf("v statement with color on all-white mesh: %q", line)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.obj")
	if err := meshio.Save(path, mesh.NewCube(2)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m, err := meshio.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	verts, edges, faces := m.Counts()
	if verts != 8 || edges != 12 || faces != 6 {
		t.Errorf("counts = %d/%d/%d, want 8/12/6", verts, edges, faces)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := meshio.Load(filepath.Join(t.TempDir(), "nope.obj")); err == nil {
		t.Fatal("Load of missing file should fail")
	}
}

func TestLoadNameFromFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumpy.obj")
	m := mesh.NewPlane(1)
	m.Name = ""
	if err := meshio.Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := meshio.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "lumpy" {
		t.Errorf("name = %q, want lumpy", got.Name)
	}
}
