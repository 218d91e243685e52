package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/SebastianScherer88/graphit/pkg/cache"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/extract"
	"github.com/SebastianScherer88/graphit/pkg/observability"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

// cacheKeyType labels extraction entries in cache hooks.
const cacheKeyType = "extract"

type extraction struct {
	definitions []extract.Definition
	diagnostics []Diagnostic
	cacheHits   int
}

type moduleResult struct {
	defs   []extract.Definition
	diag   *Diagnostic
	cached bool
}

// extractAll extracts every module on a bounded pool. Results keep
// discovery order regardless of completion order.
func (r *Runner) extractAll(ctx context.Context, modules []source.Module, opts Options) (*extraction, error) {
	ex, err := extract.New(extract.Strategy(opts.Strategy))
	if err != nil {
		return nil, err
	}

	results := make([]moduleResult, len(modules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, mod := range modules {
		g.Go(func() error {
			res, err := r.extractModule(gctx, ex, mod)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &extraction{}
	for _, res := range results {
		out.definitions = append(out.definitions, res.defs...)
		if res.diag != nil {
			out.diagnostics = append(out.diagnostics, *res.diag)
		}
		if res.cached {
			out.cacheHits++
		}
	}
	return out, nil
}

// extractModule reads mod once and extracts it, consulting the cache by
// content. Unreadable and unparsable modules yield a diagnostic and no
// definitions; only cancellation is returned as an error.
func (r *Runner) extractModule(ctx context.Context, ex extract.Extractor, mod source.Module) (moduleResult, error) {
	if err := ctx.Err(); err != nil {
		return moduleResult{}, err
	}
	hooks := observability.Pipeline()
	cacheHooks := observability.Cache()

	src, err := extract.ReadModule(mod)
	if err != nil {
		hooks.OnModuleExtracted(ctx, mod.ImportPath, 0, false, err)
		return moduleResult{diag: &Diagnostic{
			Code:    errors.ErrCodeFileAccess,
			Message: errors.Detail(err),
			Module:  mod.FilePath,
		}}, nil
	}

	key := cache.ExtractionKey(string(ex.Strategy()), src)
	var defs []extract.Definition
	hit, err := cache.GetJSON(ctx, r.Cache, key, &defs)
	if err != nil {
		r.Logger.Debug("cache read failed", "module", mod.FilePath, "err", err)
	}

	if hit {
		cacheHooks.OnCacheHit(ctx, cacheKeyType)
	} else {
		cacheHooks.OnCacheMiss(ctx, cacheKeyType)
		defs, err = ex.Extract(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return moduleResult{}, ctx.Err()
			}
			hooks.OnModuleExtracted(ctx, mod.ImportPath, 0, false, err)
			return moduleResult{diag: &Diagnostic{
				Code:    errors.ErrCodeParse,
				Message: "skipping " + mod.FilePath + ": " + errors.Detail(err),
				Module:  mod.FilePath,
			}}, nil
		}
		if err := cache.SetJSON(ctx, r.Cache, key, defs, cache.DefaultTTL); err != nil {
			r.Logger.Debug("cache write failed", "module", mod.FilePath, "err", err)
		} else {
			cacheHooks.OnCacheSet(ctx, cacheKeyType, len(src))
		}
	}

	// Ids are per run and never come from the cache.
	extract.Assign(defs, mod.ID)
	hooks.OnModuleExtracted(ctx, mod.ImportPath, len(defs), hit, nil)
	return moduleResult{defs: defs, cached: hit}, nil
}
