package session

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/meshstorm/internal/engine/mesh"
)

const helpText = "j/k move  space toggle  a/n/i all/none/inv  v/e/f kind  r run  w write  q quit"

// chrome rows: title, column header, status, help.
const chromeRows = 4

// pageSize is how far page up/down jumps.
func (s *Session) pageSize() int {
	_, h := s.scr.Size()
	if rows := h - chromeRows; rows > 1 {
		return rows
	}
	return 1
}

// draw repaints the whole frame. The mesh is small enough that
// partial repaints are not worth tracking.
func (s *Session) draw() {
	w, h := s.scr.Size()
	s.scr.Clear()
	if w <= 0 || h < chromeRows {
		s.scr.Show()
		return
	}

	coll := s.collection()
	coll.EnsureLookupTable()
	selected := len(coll.SelectedIndices())

	obj := s.eng.ActiveObject()
	title := fmt.Sprintf(" meshstorm  %s [%s]  %s %d/%d selected  preset %s",
		obj.Name, s.eng.Mode(), s.kind, selected, coll.Len(), s.preset.Operator)
	s.drawText(0, 0, s.theme.title, pad(title, w), w)

	s.drawText(0, 1, s.theme.header, pad("   sel  element", w), w)

	rows := h - chromeRows
	s.clampScroll(rows)
	for r := 0; r < rows; r++ {
		i := s.offset + r
		if i >= coll.Len() {
			break
		}
		s.drawRow(r+2, i, coll, w)
	}
	if coll.Len() == 0 {
		s.drawText(3, 2, s.theme.help, "(no elements of this kind)", w-3)
	}

	s.drawText(0, h-2, s.theme.status, pad(" "+s.status, w), w)
	s.drawText(0, h-1, s.theme.help, pad(" "+helpText, w), w)
	s.scr.Show()
}

// drawRow paints one element line: cursor marker, selection flag and
// a per-kind summary. Colored vertices get a swatch cell.
func (s *Session) drawRow(y, i int, coll mesh.Collection, w int) {
	el, err := coll.At(i)
	if err != nil {
		s.drawText(0, y, s.theme.row, fmt.Sprintf("  %d: %v", i, err), w)
		return
	}

	style := s.theme.row
	if el.Selected() {
		style = s.theme.selected
	}
	if i == s.cursor {
		style = s.theme.cursor
	}

	marker := "  "
	if i == s.cursor {
		marker = "> "
	}
	flag := "[ ]"
	if el.Selected() {
		flag = "[x]"
	}

	x := s.drawText(0, y, style, fmt.Sprintf("%s%s  ", marker, flag), w)
	if v, ok := el.(*mesh.Vertex); ok {
		s.scr.SetContent(x, y, '■', nil, swatch(style, v.Col))
		s.scr.SetContent(x+1, y, ' ', nil, style)
		x += 2
	}
	s.drawText(x, y, style, pad(elementText(i, el), w-x), w-x)
}

// elementText renders the per-kind detail column.
func elementText(i int, el mesh.Element) string {
	switch e := el.(type) {
	case *mesh.Vertex:
		return fmt.Sprintf("v%-4d (%7.3f, %7.3f, %7.3f)", i, e.Co.X, e.Co.Y, e.Co.Z)
	case *mesh.Edge:
		return fmt.Sprintf("e%-4d v%d to v%d", i, e.V[0], e.V[1])
	case *mesh.Face:
		verts := make([]string, len(e.Verts))
		for j, v := range e.Verts {
			verts[j] = fmt.Sprintf("%d", v)
		}
		return fmt.Sprintf("f%-4d %d verts [%s]", i, len(e.Verts), strings.Join(verts, " "))
	default:
		return fmt.Sprintf("element %d", i)
	}
}

// clampScroll keeps the cursor row inside the visible window.
func (s *Session) clampScroll(rows int) {
	if rows < 1 {
		rows = 1
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// drawText writes text starting at (x, y), clipped to max cells, and
// returns the cell width written. Grapheme clusters stay whole so
// wide runes never split across cells.
func (s *Session) drawText(x, y int, style tcell.Style, text string, max int) int {
	if max <= 0 {
		return 0
	}
	width := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cw := g.Width()
		if width+cw > max {
			break
		}
		runes := g.Runes()
		if len(runes) == 0 {
			continue
		}
		s.scr.SetContent(x+width, y, runes[0], runes[1:], style)
		width += cw
	}
	return width
}

// pad right-pads text with spaces so full-width styles cover the line.
func pad(text string, width int) string {
	if w := uniseg.StringWidth(text); w < width {
		return text + strings.Repeat(" ", width-w)
	}
	return text
}
