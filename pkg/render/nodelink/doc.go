// Package nodelink draws a positioned call graph as a node-link diagram.
//
// # Usage
//
// Convert a [layout.Layout] to DOT, then render it:
//
//	dot := nodelink.ToDOT(l, nodelink.DefaultOptions())
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)
//
// [Render] dispatches on a [Format] and also returns raw DOT for the "dot"
// format.
//
// # Drawing
//
// Every layout node is drawn as a row of shapes: a small circle labeled
// with the node's address (skipped for the root), a rounded box labeled
// with the function or class handle and filled with its module's color,
// and a plain box naming the module. Arrows run from a node's handle box to
// the index circle of each child; dashed arrows link index circles of
// consecutive siblings. Nodes cut off by cycle, depth or size limits are
// drawn dashed with the reason appended to their label.
//
// Positions come straight from the layout: x is the generation and y the
// row, scaled by [Options]. Every shape carries a pinned pos attribute and
// [RenderSVG] uses the neato engine so Graphviz does not move them.
//
// PDF and PNG conversion requires rsvg-convert (librsvg).
package nodelink
