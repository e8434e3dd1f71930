// Package meshio reads and writes meshes as Wavefront OBJ.
//
// The subset understood here covers positions (v, with the common
// 6-float vertex color extension), faces (f, any vertex count, slash
// forms allowed), polylines (l, used for wire edges), and object names
// (o). Normals, texture coordinates, groups and material statements are
// skipped. Vertices must appear before the faces and lines that use
// them; indices are 1-based, negative indices count back from the most
// recent vertex.
package meshio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/meshstorm/internal/engine/geom"
	"github.com/dshills/meshstorm/internal/engine/mesh"
)

// ErrSyntax indicates a malformed OBJ statement.
var ErrSyntax = errors.New("meshio: malformed OBJ")

// Load reads an OBJ file into a mesh. The mesh name comes from the
// file's o statement, falling back to the file name without extension.
func Load(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: open %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	m, err := Decode(f, name)
	if err != nil {
		return nil, fmt.Errorf("meshio: read %s: %w", path, err)
	}
	return m, nil
}

// Save writes a mesh to an OBJ file.
func Save(path string, m *mesh.Mesh) error {
	var buf strings.Builder
	if err := Encode(&buf, m); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("meshio: write %s: %w", path, err)
	}
	return nil
}

// Decode parses OBJ data into a mesh named name (overridden by an o
// statement). All elements come back deselected with fresh lookup
// tables.
func Decode(r io.Reader, name string) (*mesh.Mesh, error) {
	m := mesh.New(name)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		switch fields[0] {
		case "v":
			if err := decodeVertex(m, fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		case "f":
			if err := decodeFace(m, fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		case "l":
			if err := decodeLine(m, fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		case "o":
			if len(fields) > 1 {
				m.Name = strings.Join(fields[1:], " ")
			}
		default:
			// vn, vt, g, s, usemtl, mtllib and friends.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, k := range mesh.Kinds {
		m.Collection(k).EnsureLookupTable()
	}
	return m, nil
}

// Encode writes the mesh as OBJ. Vertex colors are emitted as three
// extra floats per v statement when any vertex is non-white; edges not
// bounding a face are written as l statements so wireframes survive a
// round trip.
func Encode(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)

	if m.Name != "" {
		fmt.Fprintf(bw, "o %s\n", m.Name)
	}

	withColor := hasVertexColor(m)
	verts := m.Collection(mesh.KindVerts)
	verts.ForEach(func(el mesh.Element) {
		v := el.(*mesh.Vertex)
		if withColor {
			fmt.Fprintf(bw, "v %.6f %.6f %.6f %.4f %.4f %.4f\n",
				v.Co.X, v.Co.Y, v.Co.Z, v.Col.R, v.Col.G, v.Col.B)
		} else {
			fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", v.Co.X, v.Co.Y, v.Co.Z)
		}
	})

	m.Collection(mesh.KindEdges).ForEach(func(el mesh.Element) {
		e := el.(*mesh.Edge)
		if len(m.FacesUsingEdge(e.V[0], e.V[1])) == 0 {
			fmt.Fprintf(bw, "l %d %d\n", e.V[0]+1, e.V[1]+1)
		}
	})

	m.Collection(mesh.KindFaces).ForEach(func(el mesh.Element) {
		f := el.(*mesh.Face)
		bw.WriteString("f")
		for _, v := range f.Verts {
			fmt.Fprintf(bw, " %d", v+1)
		}
		bw.WriteByte('\n')
	})

	return bw.Flush()
}

func hasVertexColor(m *mesh.Mesh) bool {
	white := colorful.Color{R: 1, G: 1, B: 1}
	found := false
	m.Collection(mesh.KindVerts).ForEach(func(el mesh.Element) {
		if el.(*mesh.Vertex).Col != white {
			found = true
		}
	})
	return found
}

func decodeVertex(m *mesh.Mesh, args []string) error {
	// 3 floats is a position, 4 adds the optional w (dropped), 6 adds RGB.
	if len(args) != 3 && len(args) != 4 && len(args) != 6 {
		return fmt.Errorf("%w: v with %d values", ErrSyntax, len(args))
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("%w: v value %q", ErrSyntax, a)
		}
		vals[i] = f
	}

	v := m.AddVertex(geom.Vec3{X: vals[0], Y: vals[1], Z: vals[2]})
	if len(vals) == 6 {
		v.Col = colorful.Color{R: vals[3], G: vals[4], B: vals[5]}
	}
	return nil
}

func decodeFace(m *mesh.Mesh, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: f with %d vertices", ErrSyntax, len(args))
	}
	loop := make([]int, len(args))
	for i, a := range args {
		idx, err := vertexRef(m, a)
		if err != nil {
			return err
		}
		loop[i] = idx
	}
	if _, err := m.AddFace(loop...); err != nil {
		return err
	}
	return nil
}

func decodeLine(m *mesh.Mesh, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: l with %d vertices", ErrSyntax, len(args))
	}
	prev := -1
	for i, a := range args {
		idx, err := vertexRef(m, a)
		if err != nil {
			return err
		}
		if i > 0 {
			if _, err := m.AddEdge(prev, idx); err != nil {
				return err
			}
		}
		prev = idx
	}
	return nil
}

// vertexRef resolves an OBJ vertex reference (possibly v/vt/vn) to a
// zero-based index into the vertices read so far.
func vertexRef(m *mesh.Mesh, ref string) (int, error) {
	tok, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(tok)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: vertex reference %q", ErrSyntax, ref)
	}

	nverts, _, _ := m.Counts()
	idx := n - 1
	if n < 0 {
		idx = nverts + n
	}
	if idx < 0 || idx >= nverts {
		return 0, fmt.Errorf("%w: vertex reference %d with %d read", mesh.ErrVertexRange, n, nverts)
	}
	return idx, nil
}
