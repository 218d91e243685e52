package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// rootsCommand creates the roots command.
func (c *CLI) rootsCommand() *cobra.Command {
	var flags analysisFlags
	var interactive bool

	cmd := &cobra.Command{
		Use:   "roots [dir]",
		Short: "List the root definitions of a codebase",
		Long: `Roots lists every definition that no other definition calls. Each root gets
its own graph in analyze. With --interactive a picker opens and the chosen
root is drawn right away.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags, args)
			if err != nil {
				return err
			}
			return c.runRoots(cmd.Context(), cfg, interactive)
		},
	}

	addAnalysisFlags(cmd, &flags)
	cmd.Flags().BoolVarP(&interactive, "interactive", "I", false, "pick a root and draw its graph")
	return cmd
}

func (c *CLI) runRoots(ctx context.Context, cfg *config, interactive bool) error {
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	// Stage logs would tear through the table and spinner; warnings still show.
	opts := cfg.Options
	opts.Logger = quietLogger(c.Logger)

	spinner := newSpinnerWithContext(ctx, "Analyzing "+opts.ReferenceDir+"...")
	spinner.Start()
	a, err := runner.Analyze(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	entries := rootEntries(a)
	if len(entries) == 0 {
		printInfo("No roots: every definition is called by another")
		printDiagnostics(a.Diagnostics)
		return nil
	}

	if !interactive {
		fmt.Println(rootTable(entries, -1).Render())
		printSuccess("%d roots across %d definitions", len(entries), a.Stats.Definitions)
		printDiagnostics(a.Diagnostics)
		return nil
	}

	final, err := tea.NewProgram(NewRootListModel(entries), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	m, ok := final.(RootListModel)
	if !ok || m.Selected == nil {
		printInfo("No root selected")
		return nil
	}

	g, err := runner.Expand(ctx, a, m.Selected.ID, cfg.Options)
	if err != nil {
		return err
	}
	res, err := emitGraph(ctx, runner, a, g, cfg)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

var _ tea.Model = RootListModel{}
