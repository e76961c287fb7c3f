package outbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-tracing/internal/domain/outbox"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversWithPublisherTrace(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	var mu sync.Mutex
	var got []trace.TraceID
	bus.Subscribe("order.failed", func(ctx context.Context, e domoutbox.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, trace.SpanContextFromContext(ctx).TraceID())
		return nil
	})

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("t").Start(context.Background(), "publish")
	require.NoError(t, bus.Publish(ctx, testEvent{name: "order.failed"}))
	require.NoError(t, bus.Publish(ctx, testEvent{name: "order.completed"}))
	span.End()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, span.SpanContext().TraceID(), got[0])
}

func TestBusStopDrainsAndRejects(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	delivered := 0
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "e"}))
	}
	bus.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	bus.Stop(ctx)

	mu.Lock()
	assert.Equal(t, 5, delivered)
	mu.Unlock()
	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent{name: "e"}), ErrStopped)
}

func TestBusStopBeforeStart(t *testing.T) {
	bus := NewBus(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	bus.Stop(ctx)
	require.NoError(t, ctx.Err(), "stop without a running loop must not wait")

	assert.NotPanics(t, func() {
		bus.Start(context.Background())
		bus.Stop(context.Background())
	})
	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent{name: "e"}), ErrStopped)
}

func TestBusSurvivesHandlerPanic(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	done := make(chan struct{})
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error { panic("handler bug") })
	bus.Subscribe("ok", func(context.Context, domoutbox.Event) error { close(done); return nil })

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "boom"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "ok"}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bus stopped dispatching after a handler panic")
	}
}
