package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/SebastianScherer88/graphit/pkg/cache"
	"github.com/SebastianScherer88/graphit/pkg/callgraph"
	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/layout"
	"github.com/SebastianScherer88/graphit/pkg/observability"
	"github.com/SebastianScherer88/graphit/pkg/resolve"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

// Runner executes the pipeline with an extraction cache.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger

	// Now returns the run start time used to name output directories.
	Now func() time.Time
}

// NewRunner creates a runner.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger, Now: time.Now}
}

// Execute runs every stage and writes the results into a fresh run
// directory under opts.OutputDir.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	start := r.Now()

	a, err := r.Analyze(ctx, opts)
	if err != nil {
		return nil, err
	}

	graphs, err := r.BuildGraphs(ctx, a, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Analysis: a, Graphs: graphs}
	if err := r.Emit(ctx, res, start, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// Analyze discovers, extracts and resolves the codebase and computes its
// roots.
func (r *Runner) Analyze(ctx context.Context, opts Options) (*Analysis, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	a := &Analysis{}

	// Stage 1: Discover
	stageStart := time.Now()
	sctx := hooks.OnStageStart(ctx, observability.StageDiscover)
	modules, err := source.Discover(sctx, opts.ReferenceDir, opts.SourceScope())
	a.Stats.DiscoverTime = time.Since(stageStart)
	hooks.OnStageComplete(sctx, observability.StageDiscover, len(modules), a.Stats.DiscoverTime, err)
	if err != nil {
		return nil, err
	}
	a.Modules = modules
	a.Stats.Modules = len(modules)
	opts.Logger.Info("discovered modules",
		"modules", len(modules),
		"root", opts.ReferenceDir,
		"duration", a.Stats.DiscoverTime)

	// Stage 2: Extract
	stageStart = time.Now()
	sctx = hooks.OnStageStart(ctx, observability.StageExtract)
	ext, err := r.extractAll(sctx, modules, opts)
	a.Stats.ExtractTime = time.Since(stageStart)
	hooks.OnStageComplete(sctx, observability.StageExtract, len(ext.definitions), a.Stats.ExtractTime, err)
	if err != nil {
		return nil, err
	}
	a.Stats.CacheHits = ext.cacheHits
	for _, d := range ext.diagnostics {
		r.report(sctx, a, d, opts.Logger)
	}
	opts.Logger.Info("extracted definitions",
		"definitions", len(ext.definitions),
		"strategy", opts.Strategy,
		"cached", ext.cacheHits,
		"duration", a.Stats.ExtractTime)

	// Stage 3: Resolve (barrier: needs every definition)
	stageStart = time.Now()
	sctx = hooks.OnStageStart(ctx, observability.StageResolve)
	res := resolve.Resolve(ext.definitions)
	a.Resolution = res
	a.Catalog = layout.NewCatalog(modules, res.Definitions)
	a.Roots = callgraph.Roots(res.Definitions)
	a.Stats.ResolveTime = time.Since(stageStart)
	a.Stats.Definitions = len(res.Definitions)
	a.Stats.Edges = res.EdgeCount()
	a.Stats.Roots = len(a.Roots)

	paths := make(map[string]string, len(modules))
	for _, m := range modules {
		paths[m.ID] = m.FilePath
	}
	for _, dup := range res.Table.Duplicates() {
		r.report(sctx, a, Diagnostic{
			Code: errors.ErrCodeDuplicateHandle,
			Message: "handle " + dup.Handle + " defined again in " + paths[dup.DroppedModuleID] +
				"; calls resolve to the definition in " + paths[dup.KeptModuleID],
			Module: paths[dup.DroppedModuleID],
			Handle: dup.Handle,
			ID:     dup.DroppedID,
		}, opts.Logger)
	}
	// Unmatched call names are dropped from the edges without a diagnostic.
	for _, d := range res.Definitions {
		if d.Unresolved == 0 {
			continue
		}
		a.Stats.Unresolved += d.Unresolved
		opts.Logger.Debug("dropped unresolved calls",
			"code", string(errors.ErrCodeResolutionMiss),
			"module", paths[d.ModuleID],
			"handle", d.Handle,
			"names", unresolvedNames(res.Table, d))
	}
	hooks.OnStageComplete(sctx, observability.StageResolve, a.Stats.Edges, a.Stats.ResolveTime, nil)
	opts.Logger.Info("resolved calls",
		"edges", a.Stats.Edges,
		"roots", a.Stats.Roots,
		"duplicates", a.Stats.Duplicates,
		"unresolved", a.Stats.Unresolved,
		"duration", a.Stats.ResolveTime)

	return a, nil
}

// BuildGraphs expands one graph per root of a, concurrently.
func (r *Runner) BuildGraphs(ctx context.Context, a *Analysis, opts Options) ([]*callgraph.Graph, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()

	stageStart := time.Now()
	sctx := hooks.OnStageStart(ctx, observability.StageBuild)
	graphs, overruns, err := callgraph.BuildAll(sctx, a.Resolution, a.Roots, opts.GraphOptions(), opts.Workers)
	a.Stats.BuildTime = time.Since(stageStart)
	hooks.OnStageComplete(sctx, observability.StageBuild, len(graphs), a.Stats.BuildTime, err)
	if err != nil {
		return nil, err
	}

	for _, o := range overruns {
		r.report(sctx, a, r.overrunDiagnostic(a, o), opts.Logger)
	}
	a.Stats.Graphs = len(graphs)
	a.Stats.Nodes = 0
	for _, g := range graphs {
		a.Stats.Nodes += len(g.Nodes)
	}
	opts.Logger.Info("built graphs",
		"graphs", a.Stats.Graphs,
		"nodes", a.Stats.Nodes,
		"truncated", len(overruns),
		"duration", a.Stats.BuildTime)
	return graphs, nil
}

// Graph expands the definition named handle as a root, whether or not it
// is called elsewhere. It returns NOT_FOUND for an unknown handle.
func (r *Runner) Graph(ctx context.Context, a *Analysis, handle string, opts Options) (*callgraph.Graph, error) {
	d, ok := a.Resolution.ByHandle(handle)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no definition named %q", handle)
	}
	return r.Expand(ctx, a, d.ID, opts)
}

// Expand builds the graph rooted at definition id. It returns NOT_FOUND
// when a has no such definition.
func (r *Runner) Expand(ctx context.Context, a *Analysis, id string, opts Options) (*callgraph.Graph, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := a.Resolution.Get(id); !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no definition with id %q", id)
	}
	g, overruns := callgraph.Build(a.Resolution, id, opts.GraphOptions())
	for _, o := range overruns {
		r.report(ctx, a, r.overrunDiagnostic(a, o), opts.Logger)
	}
	a.Stats.Graphs++
	a.Stats.Nodes += len(g.Nodes)
	return g, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) prepare(opts *Options) error {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	return opts.ValidateAndSetDefaults()
}

func (r *Runner) overrunDiagnostic(a *Analysis, o callgraph.Overrun) Diagnostic {
	d := Diagnostic{
		Code:    errors.ErrCodeExpansionOverrun,
		Message: o.Err().Error(),
		ID:      o.DefinitionID,
		Address: o.Address.String(),
	}
	if m, ok := a.Catalog.Lookup(o.DefinitionID); ok {
		d.Handle = m.Handle
		d.Module = m.FilePath
	}
	return d
}

// report records d on a, bumps the matching counter and logs it.
func unresolvedNames(t *resolve.Table, d resolve.ResolvedDefinition) []string {
	var names []string
	for _, c := range d.Calls {
		if _, ok := t.Lookup(c.Name); !ok {
			names = append(names, c.Name)
		}
	}
	return names
}

func (r *Runner) report(ctx context.Context, a *Analysis, d Diagnostic, logger *log.Logger) {
	a.Diagnostics = append(a.Diagnostics, d)
	switch d.Code {
	case errors.ErrCodeFileAccess:
		a.Stats.FileErrors++
	case errors.ErrCodeParse:
		a.Stats.ParseErrors++
	case errors.ErrCodeDuplicateHandle:
		a.Stats.Duplicates++
	case errors.ErrCodeExpansionOverrun:
		a.Stats.Overruns++
	}
	observability.Pipeline().OnDiagnostic(ctx, string(d.Code), d.Message)
	logger.Warn(d.Message, d.keyvals()...)
}
