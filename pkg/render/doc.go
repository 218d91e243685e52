// Package render converts graphit diagrams between output formats.
//
// Diagrams are drawn as SVG by [nodelink]. PNG and PDF are derived from that
// SVG by rsvg-convert from librsvg:
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2)
//
// [Available] reports whether the converter is installed; without it PNG and
// PDF requests fail with an UNSUPPORTED error while SVG and DOT still work.
package render
