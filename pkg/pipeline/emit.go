package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SebastianScherer88/graphit/pkg/callgraph"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/export"
	"github.com/SebastianScherer88/graphit/pkg/layout"
	"github.com/SebastianScherer88/graphit/pkg/observability"
	"github.com/SebastianScherer88/graphit/pkg/render/nodelink"
)

// DiagramFile returns the file name of the diagram of rootID in format.
func DiagramFile(rootID string, format nodelink.Format) string {
	return "graphit_" + rootID + "_graph_root_diagram." + string(format)
}

// Layout positions g using the options' palette.
func Layout(a *Analysis, g *callgraph.Graph, opts Options) *layout.Layout {
	return layout.Assign(g, a.Catalog, layout.Palette(opts.Palette))
}

// Emit lays out res.Graphs and writes tables, graph documents and diagrams
// into a new run directory named after start.
func (r *Runner) Emit(ctx context.Context, res *Result, start time.Time, opts Options) error {
	if err := r.prepare(&opts); err != nil {
		return err
	}
	hooks := observability.Pipeline()
	stageStart := time.Now()
	sctx := hooks.OnStageStart(ctx, observability.StageExport)

	files, err := r.emit(sctx, res, start, opts)
	res.Stats.EmitTime = time.Since(stageStart)
	hooks.OnStageComplete(sctx, observability.StageExport, len(files), res.Stats.EmitTime, err)
	if err != nil {
		return err
	}
	res.Files = files
	opts.Logger.Info("wrote outputs",
		"dir", res.OutputDir,
		"files", len(files),
		"duration", res.Stats.EmitTime)
	return nil
}

type rootOutput struct {
	layout *layout.Layout
	files  []string
	diags  []Diagnostic
}

func (r *Runner) emit(ctx context.Context, res *Result, start time.Time, opts Options) ([]string, error) {
	dir, err := export.RunDir(opts.OutputDir, start)
	if err != nil {
		return nil, err
	}
	res.OutputDir = dir

	files, err := export.WriteTables(dir, export.Tables{
		Modules:     res.Modules,
		Definitions: res.Definitions(),
	})
	if err != nil {
		return files, err
	}

	outputs := make([]rootOutput, len(res.Graphs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, graph := range res.Graphs {
		g.Go(func() error {
			out, err := r.emitRoot(gctx, dir, res.Analysis, graph, opts)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return files, err
	}

	res.Layouts = make([]*layout.Layout, len(outputs))
	for i, out := range outputs {
		res.Layouts[i] = out.layout
		files = append(files, out.files...)
		for _, d := range out.diags {
			r.report(ctx, res.Analysis, d, opts.Logger)
		}
	}
	return files, nil
}

// emitRoot handles one root. Failing renders become diagnostics; failing
// writes abort the run.
func (r *Runner) emitRoot(ctx context.Context, dir string, a *Analysis, g *callgraph.Graph, opts Options) (rootOutput, error) {
	if err := ctx.Err(); err != nil {
		return rootOutput{}, err
	}
	l := Layout(a, g, opts)
	out := rootOutput{layout: l}

	path, err := export.ExportGraph(dir, l)
	if err != nil {
		return out, err
	}
	out.files = append(out.files, path)

	if opts.WantsJSON() {
		path, err := export.ExportJSON(dir, l)
		if err != nil {
			return out, err
		}
		out.files = append(out.files, path)
	}

	formats := opts.DiagramFormats()
	if len(formats) == 0 {
		return out, nil
	}

	hooks := observability.Pipeline()
	rctx := hooks.OnStageStart(ctx, observability.StageRender)
	renderStart := time.Now()
	dot := nodelink.ToDOT(l, opts.Render)
	rendered := 0
	for _, format := range formats {
		data, err := nodelink.Render(rctx, dot, format, opts.Render)
		if err != nil {
			if ctx.Err() != nil {
				hooks.OnStageComplete(rctx, observability.StageRender, rendered, time.Since(renderStart), ctx.Err())
				return out, ctx.Err()
			}
			out.diags = append(out.diags, Diagnostic{
				Code:    renderCode(err),
				Message: "render " + string(format) + " for " + l.RootHandle + ": " + errors.Detail(err),
				Handle:  l.RootHandle,
				ID:      l.RootID,
			})
			continue
		}
		path := filepath.Join(dir, DiagramFile(l.RootID, format))
		if err := os.WriteFile(path, data, 0644); err != nil {
			hooks.OnStageComplete(rctx, observability.StageRender, rendered, time.Since(renderStart), err)
			return out, errors.Wrap(errors.ErrCodeFileAccess, err, "write %s", path)
		}
		out.files = append(out.files, path)
		rendered++
	}
	hooks.OnStageComplete(rctx, observability.StageRender, rendered, time.Since(renderStart), nil)
	return out, nil
}

func renderCode(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeUnsupported
}
