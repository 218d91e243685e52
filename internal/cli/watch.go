package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/SebastianScherer88/graphit/internal/watcher"
	"github.com/SebastianScherer88/graphit/pkg/errors"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var flags analysisFlags
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-run the analysis whenever a Python module changes",
		Long: `Watch runs analyze once, then again every time a module in scope is created,
changed, renamed or removed. Bursts of changes are collapsed into one run.
Each run writes a new timestamped output directory. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags, args)
			if err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), cfg, debounce)
		},
	}

	addAnalysisFlags(cmd, &flags)
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a run starts")
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, cfg *config, debounce time.Duration) error {
	logger := loggerFromContext(ctx)

	// Validate once up front so a bad flag fails before the first wait.
	cfg.Logger = logger
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	w, err := watcher.New(watcher.Config{
		Root:     cfg.ReferenceDir,
		Scope:    cfg.SourceScope(),
		Debounce: debounce,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	batches, err := w.Start(ctx)
	if err != nil {
		return err
	}

	run := func() {
		res, err := runner.Execute(ctx, cfg.Options)
		switch {
		case err == nil:
			printResult(res)
		case ctx.Err() != nil:
		case errors.Is(err, errors.ErrCodeNoModules):
			printWarning("%s", errors.UserMessage(err))
		default:
			printError("%s", errors.UserMessage(err))
		}
	}

	run()
	printInfo("Watching %s for changes (Ctrl+C to stop)", cfg.ReferenceDir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-batches:
			if !ok {
				return ctx.Err()
			}
			logger.Info("modules changed", "count", len(b.Paths), "first", b.Paths[0])
			run()
		}
	}
}
