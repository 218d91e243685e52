package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SebastianScherer88/graphit/pkg/callgraph"
	"github.com/SebastianScherer88/graphit/pkg/export"
	"github.com/SebastianScherer88/graphit/pkg/pipeline"
)

// maxListedFiles is the number of output files listed before the summary
// switches to a count.
const maxListedFiles = 12

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Analyze a codebase and draw one graph per root",
		Long: `Analyze discovers the Python modules under the reference directory, extracts
their module-level functions and classes, resolves the calls between them and
expands one dependency graph per root definition (one that nothing else calls).

Every run writes into a fresh timestamped directory under --output:
  graphit_module_meta_data.csv               one row per module
  graphit_function_meta_data.csv             one row per definition
  graphit_function_dependency_meta_data.csv  one row per resolved call
  graphit_<id>_graph_meta_data.csv           one table per root graph
  graphit_<id>_graph_root_diagram.<format>   one diagram per root and format`,
		Example: `  # Analyze the current directory
  graphit analyze

  # Only the app package, skipping generated code, as SVG and JSON
  graphit analyze ./myproject -s app -i "*_pb2.py" -f svg,json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags, args)
			if err != nil {
				return err
			}
			res, err := c.runAnalyze(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}

	addAnalysisFlags(cmd, &flags)
	return cmd
}

// runAnalyze executes the full pipeline for cfg.
func (c *CLI) runAnalyze(ctx context.Context, cfg *config) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)
	if cfg.file != "" {
		logger.Debug("loaded project file", "path", cfg.file)
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, cfg.Options)
	if err != nil {
		return nil, err
	}
	prog.done("Analysis complete", "modules", res.Stats.Modules, "roots", res.Stats.Roots, "graphs", res.Stats.Graphs)
	return res, nil
}

// emitGraph writes tables and outputs for a single graph of a.
func emitGraph(ctx context.Context, runner *pipeline.Runner, a *pipeline.Analysis, g *callgraph.Graph, cfg *config) (*pipeline.Result, error) {
	res := &pipeline.Result{Analysis: a, Graphs: []*callgraph.Graph{g}}
	if err := runner.Emit(ctx, res, runner.Now(), cfg.Options); err != nil {
		return nil, err
	}
	return res, nil
}

// printResult summarizes a finished run on stdout.
func printResult(res *pipeline.Result) {
	if len(res.Graphs) == 1 && len(res.Layouts) == 1 {
		l := res.Layouts[0]
		printSuccess("Graph of %s: %d nodes in %d generations", StyleValue.Render(l.RootHandle), len(l.Nodes), l.Width)
	} else {
		printSuccess("Wrote %d graphs", len(res.Graphs))
	}
	printStats(res.Stats)
	printDiagnostics(res.Diagnostics)

	printKeyValue("Output", res.OutputDir)
	if len(res.Files) <= maxListedFiles {
		for _, f := range res.Files {
			printFile(filepath.Base(f))
		}
	} else {
		printDetail("%d files", len(res.Files))
	}
	printTimings(res.Stats)

	if len(res.Layouts) > 0 {
		if doc := graphDocument(res, res.Layouts[0].RootID); doc != "" {
			printNextStep("Redraw a graph", fmt.Sprintf("%s render %q", appName, doc))
		}
	}
	if len(res.Graphs) == 0 {
		printInfo("No roots found: every definition is called by another (try %s graph <handle>)", appName)
	}
}

// graphDocument returns the path of the JSON document of rootID in res,
// empty when none was written.
func graphDocument(res *pipeline.Result, rootID string) string {
	want := export.GraphDocument(rootID)
	for _, f := range res.Files {
		if filepath.Base(f) == want {
			return f
		}
	}
	return ""
}
