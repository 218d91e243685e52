// Package layout assigns plot coordinates and module colors to a computed
// call graph.
//
// The layout is deliberately simple: x is the node's generation and y is a
// row counter running over the graph's nodes in address order, starting at 1.
// No overlap avoidance is attempted. Each distinct source module in a graph
// gets one color from a fixed [Palette], handed out in ascending
// import-path order. When a graph spans more modules than the palette has
// colors, colors wrap around to the start of the palette.
//
// A [Layout] is self-contained: each node carries the handle, module and
// file of its definition plus the addresses of its children and of its next
// sibling, which is everything a renderer needs to draw boxes and links.
package layout

import (
	"sort"

	"github.com/SebastianScherer88/graphit/pkg/callgraph"
	"github.com/SebastianScherer88/graphit/pkg/resolve"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

// =============================================================================
// Catalog
// =============================================================================

// Meta describes the definition a graph node points at.
type Meta struct {
	Handle     string
	Kind       string
	ModuleID   string
	Module     string // module import path
	FilePath   string
	ImportPath string // module import path + "." + handle
}

// Catalog looks up definition metadata by id. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	defs map[string]Meta
}

// NewCatalog indexes defs together with the modules they came from.
func NewCatalog(modules []source.Module, defs []resolve.ResolvedDefinition) *Catalog {
	byID := make(map[string]source.Module, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}
	c := &Catalog{defs: make(map[string]Meta, len(defs))}
	for _, d := range defs {
		m := byID[d.ModuleID]
		importPath := d.Handle
		if m.ImportPath != "" {
			importPath = m.ImportPath + "." + d.Handle
		}
		c.defs[d.ID] = Meta{
			Handle:     d.Handle,
			Kind:       string(d.Kind),
			ModuleID:   d.ModuleID,
			Module:     m.ImportPath,
			FilePath:   m.FilePath,
			ImportPath: importPath,
		}
	}
	return c
}

// Lookup returns the metadata for definition id.
func (c *Catalog) Lookup(id string) (Meta, bool) {
	m, ok := c.defs[id]
	return m, ok
}

// =============================================================================
// Layout
// =============================================================================

// Node is a graph node with coordinates, color and link targets.
type Node struct {
	callgraph.Node

	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`

	Handle     string `json:"handle"`
	Module     string `json:"module"`
	FilePath   string `json:"file_path"`
	ImportPath string `json:"import_path"`

	Children    []callgraph.Address `json:"children,omitempty"`
	NextSibling callgraph.Address   `json:"next_sibling,omitempty"`
}

// HasSibling reports whether the node has a following sibling.
func (n Node) HasSibling() bool { return n.NextSibling != nil }

// Layout is a fully positioned graph ready for rendering.
type Layout struct {
	RootID     string            `json:"root_id"`
	RootHandle string            `json:"root_handle"`
	Width      int               `json:"width"`  // generations
	Height     int               `json:"height"` // rows
	Colors     map[string]string `json:"colors"` // module import path -> color
	Nodes      []Node            `json:"nodes"`
}

// Node returns the node at the given address.
func (l *Layout) Node(addr callgraph.Address) (Node, bool) {
	for _, n := range l.Nodes {
		if callgraph.Compare(n.Address, addr) == 0 {
			return n, true
		}
	}
	return Node{}, false
}

// Assign positions and colors the nodes of g. Nodes whose definition is
// unknown to cat keep their id as handle and get no module.
func Assign(g *callgraph.Graph, cat *Catalog, palette Palette) *Layout {
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	nodes := make([]callgraph.Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Address.Less(nodes[j].Address)
	})

	metas := make([]Meta, len(nodes))
	var modules []string
	for i, n := range nodes {
		m, ok := cat.Lookup(n.TargetID)
		if !ok {
			m = Meta{Handle: n.TargetID, ImportPath: n.TargetID}
		}
		metas[i] = m
		modules = append(modules, m.Module)
	}
	colors := palette.Assign(modules)

	present := make(map[string]int, len(nodes))
	for i, n := range nodes {
		present[n.Address.String()] = i
	}

	l := &Layout{
		RootID: g.RootID,
		Colors: colors,
		Nodes:  make([]Node, len(nodes)),
		Height: len(nodes),
	}
	for i, n := range nodes {
		m := metas[i]
		ln := Node{
			Node:       n,
			X:          n.Generation,
			Y:          i + 1,
			Color:      colors[m.Module],
			Handle:     m.Handle,
			Module:     m.Module,
			FilePath:   m.FilePath,
			ImportPath: m.ImportPath,
		}
		if sib, ok := n.Address.Sibling(); ok {
			if _, exists := present[sib.String()]; exists {
				ln.NextSibling = sib
			}
		}
		// Parents sort before their children, so l.Nodes[p] is already set.
		if !n.IsRoot() {
			p := present[n.Address.Parent().String()]
			l.Nodes[p].Children = append(l.Nodes[p].Children, n.Address)
		}
		if n.Generation+1 > l.Width {
			l.Width = n.Generation + 1
		}
		if n.IsRoot() {
			l.RootHandle = m.Handle
		}
		l.Nodes[i] = ln
	}
	return l
}
