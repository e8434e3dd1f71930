package session

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// theme is the style set the session draws with. Shades come off HCL
// ramps so the selection and chrome colors stay related across the
// dark and light variants.
type theme struct {
	base     tcell.Style
	title    tcell.Style
	header   tcell.Style
	row      tcell.Style
	selected tcell.Style
	cursor   tcell.Style
	status   tcell.Style
	help     tcell.Style
}

// newTheme builds the named theme. Unknown names fall back to dark.
func newTheme(name string) theme {
	light := name == "light"

	fg := hcl(80, 0.02, 0.92)
	bg := hcl(260, 0.03, 0.10)
	dim := hcl(260, 0.02, 0.55)
	accent := hcl(230, 0.45, 0.60)
	green := hcl(140, 0.55, 0.65)
	if light {
		fg = hcl(260, 0.03, 0.15)
		bg = hcl(80, 0.01, 0.97)
		dim = hcl(260, 0.02, 0.45)
		accent = hcl(230, 0.55, 0.40)
		green = hcl(140, 0.60, 0.35)
	}

	base := tcell.StyleDefault.Foreground(fg).Background(bg)
	return theme{
		base:     base,
		title:    base.Foreground(accent).Bold(true),
		header:   base.Foreground(dim).Underline(true),
		row:      base,
		selected: base.Foreground(green),
		cursor:   base.Reverse(true),
		status:   base.Foreground(accent),
		help:     base.Foreground(dim),
	}
}

// hcl converts an HCL triple to a terminal color.
func hcl(h, c, l float64) tcell.Color {
	r, g, b := colorful.Hcl(h, c, l).Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// swatch styles the color cell drawn next to vertices that carry a
// vertex color.
func swatch(base tcell.Style, col colorful.Color) tcell.Style {
	r, g, b := col.RGB255()
	return base.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}
