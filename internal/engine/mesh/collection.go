package mesh

import "fmt"

// Collection is a view over one element kind of a mesh. Index-based
// access requires a valid lookup table for that kind; iteration and
// counting do not.
type Collection struct {
	m    *Mesh
	kind ElementKind
}

// Collection returns the view for the given kind. The kind must be valid.
func (m *Mesh) Collection(kind ElementKind) Collection {
	return Collection{m: m, kind: kind}
}

// Kind returns the element kind this collection views.
func (c Collection) Kind() ElementKind { return c.kind }

// Len returns the current number of elements.
func (c Collection) Len() int {
	switch c.kind {
	case KindVerts:
		return len(c.m.verts)
	case KindEdges:
		return len(c.m.edges)
	default:
		return len(c.m.faces)
	}
}

func (c Collection) at(i int) Element {
	switch c.kind {
	case KindVerts:
		return c.m.verts[i]
	case KindEdges:
		return c.m.edges[i]
	default:
		return c.m.faces[i]
	}
}

// At returns the element at position i. It fails if the kind's lookup
// table is stale or i is out of range.
func (c Collection) At(i int) (Element, error) {
	if !c.m.lookupValid[c.kind] {
		return nil, fmt.Errorf("%w: %s", ErrLookupStale, c.kind)
	}
	if i < 0 || i >= c.Len() {
		return nil, fmt.Errorf("%w: %s[%d] with %d elements", ErrIndexRange, c.kind, i, c.Len())
	}
	return c.at(i), nil
}

// EnsureLookupTable renumbers stored indices to match current positions
// and marks the kind's table valid. Calling it on a valid table is a
// no-op apart from the flag check.
func (c Collection) EnsureLookupTable() {
	if c.m.lookupValid[c.kind] {
		return
	}
	switch c.kind {
	case KindVerts:
		for i, v := range c.m.verts {
			v.index = i
		}
	case KindEdges:
		for i, e := range c.m.edges {
			e.index = i
		}
	default:
		for i, f := range c.m.faces {
			f.index = i
		}
	}
	c.m.lookupValid[c.kind] = true
}

// Select sets the selection flag of the element at position i.
func (c Collection) Select(i int, selected bool) error {
	el, err := c.At(i)
	if err != nil {
		return err
	}
	el.SetSelected(selected)
	return nil
}

// Selected reports the selection flag of the element at position i.
func (c Collection) Selected(i int) (bool, error) {
	el, err := c.At(i)
	if err != nil {
		return false, err
	}
	return el.Selected(), nil
}

// SelectedIndices returns the stored indices of selected elements in
// native order. Stored indices are returned as-is; after deletions they
// may be stale until EnsureLookupTable runs.
func (c Collection) SelectedIndices() []int {
	out := []int{}
	c.ForEach(func(el Element) {
		if el.Selected() {
			out = append(out, el.Index())
		}
	})
	return out
}

// ForEach visits every element in native order.
func (c Collection) ForEach(fn func(Element)) {
	for i := 0; i < c.Len(); i++ {
		fn(c.at(i))
	}
}
