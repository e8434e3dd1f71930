// Package mesh provides the editable polygon mesh used by the engine.
//
// A Mesh holds vertex, edge and face collections addressed by an
// ElementKind tag. Every element carries a stored index and
// a selection flag. The package mirrors the working-copy discipline of an
// edit-mode mesh:
//
//   - Iteration always walks elements in native (insertion) order.
//   - Direct index lookup goes through a per-kind lookup table that is
//     invalidated by any topology mutation and must be refreshed with
//     EnsureLookupTable before At is valid again.
//   - Stored element indices can go stale after removals; EnsureLookupTable
//     renumbers them to match the current iteration order.
//
// Selection flags are per kind and independent: selecting a face does not
// flush selection down to its edges or vertices.
//
// Mesh is not safe for concurrent use; the engine facade provides
// synchronization.
package mesh
