package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/export"
	"github.com/SebastianScherer88/graphit/pkg/pipeline"
	"github.com/SebastianScherer88/graphit/pkg/render/nodelink"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	formats []string
	output  string
	render  nodelink.Options
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{render: nodelink.DefaultOptions()}

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Redraw a saved graph document",
		Long: `Render draws a graph document written by analyze or graph with --format json,
without analyzing the codebase again. Diagrams are written next to the
document unless --output names another directory.`,
		Example: `  graphit render output/2024-01-02\ 03-04-05/graphit_<id>_graph.json -f png --scale 3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			for _, f := range opts.formats {
				if f == pipeline.FormatJSON {
					return errors.New(errors.ErrCodeInvalidFormat, "render cannot write json; the input already is a graph document")
				}
			}
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", pipeline.FormatSVG, "output format(s): svg, png, pdf, dot (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default: next to the input)")
	cmd.Flags().Float64Var(&opts.render.XStep, "x-step", opts.render.XStep, "horizontal distance between generations")
	cmd.Flags().Float64Var(&opts.render.YStep, "y-step", opts.render.YStep, "vertical distance between rows")
	cmd.Flags().Float64Var(&opts.render.Scale, "scale", opts.render.Scale, "PNG scale factor")

	return cmd
}

// runRender loads the graph document at input and writes one diagram per
// requested format.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	l, err := export.ImportJSON(input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded graph of %s: %d nodes", l.RootHandle, len(l.Nodes))

	dir := opts.output
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeFileAccess, err, "create %s", dir)
	}

	prog := newProgress(logger)
	dot := nodelink.ToDOT(l, opts.render)
	var written []string
	for _, f := range opts.formats {
		format := nodelink.Format(f)
		data, err := nodelink.Render(ctx, dot, format, opts.render)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, pipeline.DiagramFile(l.RootID, format))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return errors.Wrap(errors.ErrCodeFileAccess, err, "write %s", path)
		}
		logger.Debugf("Generated %s: %d bytes", path, len(data))
		written = append(written, path)
	}
	prog.done("Render complete", "handle", l.RootHandle, "files", len(written))

	for _, p := range written {
		printFile(p)
	}
	return nil
}
