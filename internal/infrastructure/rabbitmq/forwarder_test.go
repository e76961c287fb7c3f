package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	domorder "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-tracing/internal/domain/outbox"
	infraobs "github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *fakeSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = map[string]domoutbox.Handler{}
	}
	s.handlers[name] = h
}

func TestForwarderPublishesEventWithTraceHeaders(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tel := infraobs.New(oteltrace.New(tp, "order"), observability.NopLogger(), nil, nil)
	ch := &fakeChannel{}
	fwd := NewForwarder(ch, nil, tel)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "publisher")
	evt := domorder.OrderFailedEvent{OrderID: "o-1", Stage: domorder.StagePayment, StockState: domorder.StockCommitted}
	require.NoError(t, fwd.Handle(ctx, evt))
	parent.End()

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, ExchangeName, got.exchange)
	assert.Equal(t, "order.failed", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "o-1", body["order_id"])

	carried := propagation.TraceContext{}.Extract(context.Background(), tableCarrier(got.msg.Headers))
	assert.Equal(t, parent.SpanContext().TraceID(), trace.SpanContextFromContext(carried).TraceID())

	var producer sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if s.Name() == "AMQP publish order.failed" {
			producer = s
		}
	}
	require.NotNil(t, producer)
	assert.Equal(t, trace.SpanKindProducer, producer.SpanKind())
}

func TestForwarderReturnsPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	fwd := NewForwarder(ch, nil, nil)

	err := fwd.Handle(context.Background(), domorder.OrderCompletedEvent{OrderID: "o-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order.completed")
}

func TestForwardSubscribesEveryName(t *testing.T) {
	sub := &fakeSubscriber{}
	ch := &fakeChannel{}
	NewForwarder(ch, nil, nil).Forward(sub, "order.completed", "order.failed")

	require.Len(t, sub.handlers, 2)
	require.NoError(t, sub.handlers["order.completed"](context.Background(), domorder.OrderCompletedEvent{OrderID: "o-2"}))
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "order.completed", ch.sent[0].key)
}
