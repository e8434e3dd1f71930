package mesh

import "errors"

// Mesh errors.
var (
	// ErrInvalidKind indicates an element kind name outside verts/edges/faces.
	ErrInvalidKind = errors.New("mesh: invalid element kind")

	// ErrLookupStale indicates index lookup was attempted after a topology
	// change without an EnsureLookupTable refresh.
	ErrLookupStale = errors.New("mesh: lookup table stale, call EnsureLookupTable")

	// ErrIndexRange indicates an element index outside the collection.
	ErrIndexRange = errors.New("mesh: element index out of range")

	// ErrVertexRange indicates a vertex index outside the vertex collection.
	ErrVertexRange = errors.New("mesh: vertex index out of range")

	// ErrDegenerateFace indicates a face with fewer than three distinct vertices.
	ErrDegenerateFace = errors.New("mesh: face needs at least three distinct vertices")

	// ErrDegenerateEdge indicates an edge whose endpoints are the same vertex.
	ErrDegenerateEdge = errors.New("mesh: edge endpoints must differ")
)
