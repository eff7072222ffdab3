package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpansRecordedWithRecorder(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "parent")
	Event(ctx, "phase", map[string]string{"phase": "AUDITING"})
	EndSpan(parent, errors.New("boom"))

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", ended[0].Status().Code)
	}
	if len(ended[0].Events()) == 0 {
		t.Error("expected phase event on span")
	}
}

func TestStartSpanNoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "dispatch", map[string]string{"task.id": "t1"})
	if ctx == nil || span == nil {
		t.Fatal("expected usable span from the global provider")
	}
	Event(ctx, "ignored", nil)
	EndSpan(span, nil)
	EndSpan(nil, nil)
}
