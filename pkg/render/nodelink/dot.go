package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/SebastianScherer88/graphit/pkg/buildinfo"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/layout"
	"github.com/SebastianScherer88/graphit/pkg/render"
)

// Format is a diagram output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	FormatDOT Format = "dot"
)

// Formats lists the diagram formats [Render] accepts.
var Formats = []Format{FormatSVG, FormatPNG, FormatPDF, FormatDOT}

// Options configures diagram geometry. Distances are in inches.
type Options struct {
	// XStep is the horizontal distance between two generations.
	XStep float64
	// YStep is the vertical distance between two rows.
	YStep float64
	// Scale is the PNG resolution multiplier.
	Scale float64
}

// DefaultOptions returns the geometry used by the CLI.
func DefaultOptions() Options {
	return Options{XStep: 5.5, YStep: 0.9, Scale: 2.0}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.XStep <= 0 {
		o.XStep = d.XStep
	}
	if o.YStep <= 0 {
		o.YStep = d.YStep
	}
	if o.Scale <= 0 {
		o.Scale = d.Scale
	}
	return o
}

// Offsets of the three shapes of a node relative to its column.
const (
	idxOffset = 0.0
	fnOffset  = 1.6
	modOffset = 3.5
)

// ToDOT converts a layout to Graphviz DOT with every shape pinned at its
// layout coordinates. Render the result with the neato engine, which
// honors pinned positions; [RenderSVG] does this.
//
// Each layout node becomes up to three DOT nodes named after its row:
// n<y>_idx (the address circle, absent at generation 0), n<y>_fn (the
// handle box filled with the module color) and n<y>_mod (the module box).
func ToDOT(l *layout.Layout, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// %s root=%s\n", buildinfo.UserAgent(), l.RootHandle)
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [fontsize=14, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")

	rows := make(map[string]int, len(l.Nodes))
	for _, n := range l.Nodes {
		rows[n.Address.String()] = n.Y
	}

	for _, n := range l.Nodes {
		x := float64(n.X) * opts.XStep
		y := -float64(n.Y) * opts.YStep

		if !n.IsRoot() {
			fmt.Fprintf(&buf, "  %s [%s];\n", shapeID(n.Y, "idx"), strings.Join([]string{
				fmt.Sprintf("label=%q", n.Address.String()),
				"shape=circle",
				"fixedsize=true",
				"width=0.55",
				"fontsize=10",
				pos(x+idxOffset, y),
			}, ", "))
		}

		style := "rounded,filled"
		if n.Truncated {
			style += ",dashed"
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", shapeID(n.Y, "fn"), strings.Join([]string{
			fmt.Sprintf("label=%q", fnLabel(n)),
			"shape=box",
			fmt.Sprintf("style=%q", style),
			fmt.Sprintf("fillcolor=%q", fillColor(n.Color)),
			fmt.Sprintf("tooltip=%q", n.ImportPath),
			pos(x+fnOffset, y),
		}, ", "))

		fmt.Fprintf(&buf, "  %s [%s];\n", shapeID(n.Y, "mod"), strings.Join([]string{
			fmt.Sprintf("label=%q", moduleLabel(n)),
			"shape=box",
			"fontsize=11",
			fmt.Sprintf("tooltip=%q", n.FilePath),
			pos(x+modOffset, y),
		}, ", "))
	}

	buf.WriteString("\n")
	for _, n := range l.Nodes {
		if !n.IsRoot() {
			fmt.Fprintf(&buf, "  %s -> %s [arrowhead=none];\n", shapeID(n.Y, "idx"), shapeID(n.Y, "fn"))
		}
		fmt.Fprintf(&buf, "  %s -> %s [arrowhead=none, style=dotted];\n", shapeID(n.Y, "fn"), shapeID(n.Y, "mod"))

		for _, c := range n.Children {
			if row, ok := rows[c.String()]; ok {
				fmt.Fprintf(&buf, "  %s -> %s;\n", shapeID(n.Y, "fn"), shapeID(row, "idx"))
			}
		}
		if n.HasSibling() {
			if row, ok := rows[n.NextSibling.String()]; ok {
				fmt.Fprintf(&buf, "  %s -> %s [style=dashed, color=\"#888888\"];\n", shapeID(n.Y, "idx"), shapeID(row, "idx"))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func shapeID(row int, part string) string {
	return fmt.Sprintf("n%d_%s", row, part)
}

func pos(x, y float64) string {
	return fmt.Sprintf("pos=\"%.2f,%.2f!\"", x, y)
}

func fnLabel(n layout.Node) string {
	if n.Truncated {
		return fmt.Sprintf("%s (%s)", n.Handle, n.Reason)
	}
	return n.Handle
}

func moduleLabel(n layout.Node) string {
	if n.Module == "" {
		return "?"
	}
	return n.Module
}

func fillColor(c string) string {
	if c == "" {
		return "white"
	}
	return c
}

// =============================================================================
// Rendering
// =============================================================================

// Render produces the diagram for dot in the given format.
func Render(ctx context.Context, dot string, format Format, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot, opts.Scale)
	case FormatPDF:
		return RenderPDF(ctx, dot)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported diagram format %q", format)
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz with the neato
// engine so pinned positions are kept.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
