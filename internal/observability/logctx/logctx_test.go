package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

type fieldLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l *fieldLogger) With(fs ...observability.Field) observability.Logger {
	return &fieldLogger{Logger: l.Logger, fields: append(append([]observability.Field(nil), l.fields...), fs...)}
}

func TestFromOrFallsBack(t *testing.T) {
	assert.NotNil(t, FromOr(context.Background(), nil))

	fallback := &fieldLogger{Logger: observability.NopLogger()}
	assert.Same(t, fallback, FromOr(context.Background(), fallback))

	stored := &fieldLogger{Logger: observability.NopLogger()}
	assert.Same(t, stored, FromOr(With(context.Background(), stored), fallback))
}

func TestEnrichAddsTraceIDs(t *testing.T) {
	tid, _ := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	sid, _ := trace.SpanIDFromHex("b7ad6b7169203331")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled,
	}))

	ctx, logger := Enrich(ctx, &fieldLogger{Logger: observability.NopLogger()}, observability.F("order_id", "o-1"))

	assert.Same(t, logger, From(ctx))
	assert.Equal(t, []observability.Field{
		observability.F("order_id", "o-1"),
		observability.F("trace_id", "0af7651916cd43dd8448eb211c80319c"),
		observability.F("span_id", "b7ad6b7169203331"),
	}, logger.(*fieldLogger).fields)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "req-1", RequestID(WithRequestID(context.Background(), "req-1")))
	assert.Empty(t, RequestID(WithRequestID(context.Background(), "")))
}
