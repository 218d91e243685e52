package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of pipeline spans.
const TracerName = "github.com/SebastianScherer88/graphit/pkg/pipeline"

// TracingHooks records pipeline stages as OpenTelemetry spans. Module
// extraction, diagnostics and cache traffic become events on the
// surrounding stage span.
type TracingHooks struct {
	tracer trace.Tracer
}

// NewTracingHooks creates hooks that trace through tp.
func NewTracingHooks(tp trace.TracerProvider) *TracingHooks {
	return &TracingHooks{tracer: tp.Tracer(TracerName)}
}

// OnStageStart opens a span named "graphit.<stage>".
func (h *TracingHooks) OnStageStart(ctx context.Context, stage Stage) context.Context {
	ctx, _ = h.tracer.Start(ctx, "graphit."+string(stage),
		trace.WithAttributes(attribute.String("graphit.stage", string(stage))))
	return ctx
}

// OnStageComplete ends the stage span opened by OnStageStart.
func (h *TracingHooks) OnStageComplete(ctx context.Context, stage Stage, items int, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("graphit.items", items),
		attribute.Int64("graphit.duration_ms", duration.Milliseconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (h *TracingHooks) OnModuleExtracted(ctx context.Context, module string, definitions int, cached bool, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("graphit.module", module),
		attribute.Int("graphit.definitions", definitions),
		attribute.Bool("graphit.cached", cached),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
	}
	trace.SpanFromContext(ctx).AddEvent("module.extracted", trace.WithAttributes(attrs...))
}

func (h *TracingHooks) OnDiagnostic(ctx context.Context, code, message string) {
	trace.SpanFromContext(ctx).AddEvent("diagnostic", trace.WithAttributes(
		attribute.String("graphit.code", code),
		attribute.String("graphit.message", message),
	))
}

func (h *TracingHooks) OnCacheHit(ctx context.Context, keyType string) {
	trace.SpanFromContext(ctx).AddEvent("cache.hit", trace.WithAttributes(attribute.String("graphit.key_type", keyType)))
}

func (h *TracingHooks) OnCacheMiss(ctx context.Context, keyType string) {
	trace.SpanFromContext(ctx).AddEvent("cache.miss", trace.WithAttributes(attribute.String("graphit.key_type", keyType)))
}

func (h *TracingHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	trace.SpanFromContext(ctx).AddEvent("cache.set", trace.WithAttributes(
		attribute.String("graphit.key_type", keyType),
		attribute.Int("graphit.size", size),
	))
}

var (
	_ PipelineHooks = (*TracingHooks)(nil)
	_ CacheHooks    = (*TracingHooks)(nil)
)
