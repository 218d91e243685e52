// Package observability provides hooks for tracing and metrics.
//
// Libraries emit events through package-level hooks; the CLI registers a
// real implementation at startup. The defaults do nothing, so library users
// pay nothing unless they opt in.
//
// # Usage
//
// Register hooks at application startup:
//
//	tp := sdktrace.NewTracerProvider(...)
//	h := observability.NewTracingHooks(tp)
//	observability.SetPipelineHooks(h)
//	observability.SetCacheHooks(h)
//
// Libraries call hooks to emit events:
//
//	ctx = observability.Pipeline().OnStageStart(ctx, observability.StageExtract)
//	// ... extract modules ...
//	observability.Pipeline().OnStageComplete(ctx, observability.StageExtract, n, time.Since(start), err)
//
// OnStageStart returns the context later hooks of the same stage should
// receive, which lets tracing implementations nest spans.
package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageExtract  Stage = "extract"
	StageResolve  Stage = "resolve"
	StageBuild    Stage = "build"
	StageRender   Stage = "render"
	StageExport   Stage = "export"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the analysis pipeline.
type PipelineHooks interface {
	// Stage events. items counts what the stage produced (modules,
	// definitions, graphs, files).
	OnStageStart(ctx context.Context, stage Stage) context.Context
	OnStageComplete(ctx context.Context, stage Stage, items int, duration time.Duration, err error)

	// OnModuleExtracted fires once per module.
	OnModuleExtracted(ctx context.Context, module string, definitions int, cached bool, err error)

	// OnDiagnostic fires for every recoverable problem the run records.
	OnDiagnostic(ctx context.Context, code, message string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(ctx context.Context, _ Stage) context.Context { return ctx }
func (NoopPipelineHooks) OnStageComplete(context.Context, Stage, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnModuleExtracted(context.Context, string, int, bool, error) {}
func (NoopPipelineHooks) OnDiagnostic(context.Context, string, string)                {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
