package mesh

import mapset "github.com/deckarep/golang-set/v2"

// DeselectAll clears the selection flag of every element of every kind.
// Topology and lookup tables are untouched.
func (m *Mesh) DeselectAll() {
	for _, k := range Kinds {
		m.Collection(k).ForEach(func(el Element) { el.SetSelected(false) })
	}
}

// SelectAllElements sets the selection flag of every element of every kind.
func (m *Mesh) SelectAllElements() {
	for _, k := range Kinds {
		m.Collection(k).ForEach(func(el Element) { el.SetSelected(true) })
	}
}

// InvertSelection flips the selection flag of every element of every kind.
func (m *Mesh) InvertSelection() {
	for _, k := range Kinds {
		m.Collection(k).ForEach(func(el Element) { el.SetSelected(!el.Selected()) })
	}
}

// CountSelected returns the number of selected elements of the given kind.
func (m *Mesh) CountSelected(kind ElementKind) int {
	n := 0
	m.Collection(kind).ForEach(func(el Element) {
		if el.Selected() {
			n++
		}
	})
	return n
}

// SelectedSet returns the selected positions of the given kind as a set.
// Unlike Collection.SelectedIndices it reports current positions, not
// stored indices, so it is safe to use on a stale lookup table.
func (m *Mesh) SelectedSet(kind ElementKind) mapset.Set[int] {
	set := mapset.NewThreadUnsafeSet[int]()
	pos := 0
	m.Collection(kind).ForEach(func(el Element) {
		if el.Selected() {
			set.Add(pos)
		}
		pos++
	})
	return set
}
