package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-tracing/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"
)

// Channel is the part of *amqp.Channel the forwarder publishes through.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Forwarder republishes bus events as JSON messages. The routing key is the event name and the
// W3C trace headers travel in the message headers.
type Forwarder struct {
	ch         Channel
	propagator propagation.TextMapPropagator
	tracer     observability.Tracer
	log        observability.Logger
	extCounter observability.Counter
	extLatency observability.Histogram
}

func NewForwarder(ch Channel, propagator propagation.TextMapPropagator, tel observability.Observability) *Forwarder {
	if tel == nil {
		tel = observability.Nop()
	}
	if propagator == nil {
		propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}
	return &Forwarder{
		ch:         ch,
		propagator: propagator,
		tracer:     tel.Tracer(),
		log:        tel.Logger().With(observability.F("component", "amqp_forwarder")),
		extCounter: tel.Metrics().Counter(observability.MExternalRequests),
		extLatency: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

// Forward subscribes the forwarder to every named event on sub.
func (f *Forwarder) Forward(sub domoutbox.Subscriber, eventNames ...string) {
	for _, name := range eventNames {
		sub.Subscribe(name, f.Handle)
	}
}

func (f *Forwarder) Handle(ctx context.Context, e domoutbox.Event) (err error) {
	name := e.EventName()
	ctx, span := f.tracer.StartKind(ctx, "AMQP publish "+name, trace.SpanKindProducer,
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination", ExchangeName),
		attribute.String("messaging.rabbitmq.routing_key", name),
	)
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		f.extCounter.Add(1,
			observability.L("peer", "rabbitmq"),
			observability.L("endpoint", name),
			observability.L("outcome", outcome),
		)
		f.extLatency.Observe(time.Since(start).Seconds(),
			observability.L("peer", "rabbitmq"),
			observability.L("endpoint", name),
		)
		span.End()
	}()

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("could not marshal %s: %w", name, err)
	}

	headers := amqp.Table{}
	f.propagator.Inject(ctx, tableCarrier(headers))

	err = f.ch.PublishWithContext(ctx,
		ExchangeName, // exchange
		name,         // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         name,
			Headers:      headers,
			Body:         body,
		},
	)
	if err != nil {
		logctx.FromOr(ctx, f.log).Error("amqp_publish_failed",
			observability.F("event", name),
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// tableCarrier adapts amqp headers to the propagation.TextMapCarrier interface.
type tableCarrier amqp.Table

func (c tableCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c tableCarrier) Set(key, value string) { c[key] = value }

func (c tableCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
