package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	if got := p.OnStageStart(ctx, StageExtract); got != ctx {
		t.Error("NoopPipelineHooks.OnStageStart should return ctx unchanged")
	}
	p.OnStageComplete(ctx, StageExtract, 3, time.Second, nil)
	p.OnModuleExtracted(ctx, "pkg.mod", 4, true, nil)
	p.OnDiagnostic(ctx, "PARSE_ERROR", "bad syntax")

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "extract")
	c.OnCacheMiss(ctx, "extract")
	c.OnCacheSet(ctx, "extract", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset() should restore NoopCacheHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}
}

func TestTracingHooks(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	h := NewTracingHooks(tp)
	ctx := h.OnStageStart(context.Background(), StageExtract)
	h.OnModuleExtracted(ctx, "app.main", 2, false, nil)
	h.OnCacheMiss(ctx, "extract")
	h.OnDiagnostic(ctx, "PARSE_ERROR", "line 3")
	h.OnStageComplete(ctx, StageExtract, 1, time.Millisecond, errors.New("boom"))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d ended spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "graphit.extract" {
		t.Errorf("span name = %q", span.Name())
	}
	var names []string
	for _, e := range span.Events() {
		names = append(names, e.Name)
	}
	want := []string{"module.extracted", "cache.miss", "diagnostic", "exception"}
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, names[i], want[i])
		}
	}
	if span.Status().Description != "boom" {
		t.Errorf("status = %+v", span.Status())
	}
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
