package mesh

import "fmt"

// ElementKind identifies one of the three disjoint element collections of a
// mesh. It replaces name-based dynamic access with a tagged variant: every
// API that works per kind takes an ElementKind and selects one of three
// fixed accessors.
type ElementKind uint8

const (
	// KindVerts addresses the vertex collection.
	KindVerts ElementKind = iota
	// KindEdges addresses the edge collection.
	KindEdges
	// KindFaces addresses the face collection.
	KindFaces
)

// Kinds lists all element kinds in declaration order.
var Kinds = []ElementKind{KindVerts, KindEdges, KindFaces}

// String returns the canonical name of the kind.
func (k ElementKind) String() string {
	switch k {
	case KindVerts:
		return "verts"
	case KindEdges:
		return "edges"
	case KindFaces:
		return "faces"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid returns true if k is one of the three element kinds.
func (k ElementKind) Valid() bool {
	return k <= KindFaces
}

// ParseKind parses a kind name. Accepted names are "verts", "edges" and
// "faces" plus the common aliases "vertices" and "vert"/"edge"/"face".
func ParseKind(name string) (ElementKind, error) {
	switch name {
	case "verts", "vertices", "vert":
		return KindVerts, nil
	case "edges", "edge":
		return KindEdges, nil
	case "faces", "face":
		return KindFaces, nil
	default:
		return 0, fmt.Errorf("%w: %q (use verts, edges or faces)", ErrInvalidKind, name)
	}
}
