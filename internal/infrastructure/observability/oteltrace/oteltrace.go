// Package oteltrace backs the observability.Tracer port with OpenTelemetry.
package oteltrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

// RoleKey tags every span with the pipeline service that started it.
const RoleKey = attribute.Key("minishop.role")

type tracer struct {
	t     trace.Tracer
	fixed []attribute.KeyValue
}

// New returns a Tracer whose spans all carry fixed. A nil tp falls back to the
// global provider.
func New(tp trace.TracerProvider, scope string, fixed ...attribute.KeyValue) observability.Tracer {
	if scope == "" {
		scope = "minishop"
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracer{t: tp.Tracer(scope), fixed: fixed}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(t.attrs(attrs)...))
}

func (t *tracer) StartKind(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(t.attrs(attrs)...))
}

func (t *tracer) attrs(extra []attribute.KeyValue) []attribute.KeyValue {
	if len(t.fixed) == 0 {
		return extra
	}
	out := make([]attribute.KeyValue, 0, len(t.fixed)+len(extra))
	return append(append(out, t.fixed...), extra...)
}
