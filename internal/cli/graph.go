package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/SebastianScherer88/graphit/pkg/pipeline"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "graph <handle> [dir]",
		Short: "Draw the graph of a single definition",
		Long: `Graph expands one definition as if it were a root, whether or not anything
calls it. This is how call cycles are inspected: a definition that only
appears inside a cycle is never a root, but graph can still draw it. Branches
that re-enter a definition already on their path are cut and drawn dashed.`,
		Example: `  graphit graph main ./myproject -f svg,json`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags, args[1:])
			if err != nil {
				return err
			}
			res, err := c.runGraph(cmd.Context(), cfg, args[0])
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

// runGraph analyzes the codebase and emits the graph of handle only.
func (c *CLI) runGraph(ctx context.Context, cfg *config, handle string) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	a, err := runner.Analyze(ctx, cfg.Options)
	if err != nil {
		return nil, err
	}
	g, err := runner.Graph(ctx, a, handle, cfg.Options)
	if err != nil {
		return nil, err
	}
	res, err := emitGraph(ctx, runner, a, g, cfg)
	if err != nil {
		return nil, err
	}
	prog.done("Graph complete", "handle", handle, "nodes", len(g.Nodes))
	return res, nil
}
