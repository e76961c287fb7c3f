package httppresentation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	infraobs "github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"
)

func tracedRouter(t *testing.T, service string) (*Router, *tracetest.SpanRecorder, trace.Tracer) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tel := infraobs.New(oteltrace.New(tp, service), observability.NopLogger(), nil, nil)
	return NewRouter(service, tel, nil), rec, tp.Tracer("caller")
}

func TestRouterContinuesCallerTrace(t *testing.T) {
	rt, rec, caller := tracedRouter(t, "inventory")
	var seen string
	rt.Handle(http.MethodGet, "/probe", func(w http.ResponseWriter, r *http.Request) {
		seen = observability.TraceID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	ctx, parent := caller.Start(context.Background(), "client")
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))
	parent.End()

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, parent.SpanContext().TraceID().String(), seen)

	var server sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if s.Name() == "GET /probe" {
			server = s
		}
	}
	require.NotNil(t, server)
	assert.Equal(t, trace.SpanKindServer, server.SpanKind())
	assert.Equal(t, parent.SpanContext().SpanID(), server.Parent().SpanID())
}

func TestRouterStartsRootTraceWithoutHeaders(t *testing.T) {
	rt, _, _ := tracedRouter(t, "gateway")
	var first, second string
	rt.Handle(http.MethodGet, "/probe", func(w http.ResponseWriter, r *http.Request) {
		if first == "" {
			first = observability.TraceID(r.Context())
		} else {
			second = observability.TraceID(r.Context())
		}
	})

	rt.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/probe", nil))
	rt.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

func TestRouterRequestID(t *testing.T) {
	rt, _, _ := tracedRouter(t, "order")
	var fromCtx string
	rt.Handle(http.MethodGet, "/probe", func(w http.ResponseWriter, r *http.Request) {
		fromCtx = logctx.RequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(headerRequestID, "rid-123")
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)
	assert.Equal(t, "rid-123", w.Header().Get(headerRequestID))
	assert.Equal(t, "rid-123", fromCtx)

	w = httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestRouterMarksServerErrors(t *testing.T) {
	rt, rec, _ := tracedRouter(t, "payment")
	rt.Handle(http.MethodPost, "/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rt.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/boom", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /boom", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

func TestHealth(t *testing.T) {
	rt, _, _ := tracedRouter(t, "warehouse")
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"warehouse"}`, w.Body.String())
}

func TestUnknownMethodRejected(t *testing.T) {
	rt, _, _ := tracedRouter(t, "fraud")
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
