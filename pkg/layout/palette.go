package layout

import "sort"

// Palette is an ordered list of fill colors.
type Palette []string

// DefaultPalette holds ten light fills that keep black labels readable.
var DefaultPalette = Palette{
	"#8dd3c7",
	"#ffffb3",
	"#bebada",
	"#fb8072",
	"#80b1d3",
	"#fdb462",
	"#b3de69",
	"#fccde5",
	"#d9d9d9",
	"#bc80bd",
}

// Color returns the color for the i-th module, wrapping past the end.
func (p Palette) Color(i int) string {
	if len(p) == 0 {
		return ""
	}
	return p[i%len(p)]
}

// Assign maps each distinct module import path to a color. Modules are
// numbered in ascending sorted order; duplicates and order of the input do
// not matter.
func (p Palette) Assign(modules []string) map[string]string {
	seen := make(map[string]bool, len(modules))
	var distinct []string
	for _, m := range modules {
		if !seen[m] {
			seen[m] = true
			distinct = append(distinct, m)
		}
	}
	sort.Strings(distinct)

	colors := make(map[string]string, len(distinct))
	for i, m := range distinct {
		colors[m] = p.Color(i)
	}
	return colors
}
