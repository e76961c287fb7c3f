package gateway

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/application"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	gatewayService     = "api-gateway"
	useCaseSubmitOrder = "gateway.submit_order"

	MessageOrderUnreachable = "Error contacting order service"
)

// OrderForwarder posts a raw order body to the orchestrator and hands back its status and body.
type OrderForwarder interface {
	Forward(ctx context.Context, body []byte) (status int, respBody []byte, err error)
}

// Relay is the orchestrator's answer, passed back to the client unchanged.
type Relay struct {
	Status int
	Body   []byte
}

type SubmitOrderUseCase struct {
	forwarder OrderForwarder

	tel observability.Observability
	log observability.Logger
	red application.RED
}

func NewSubmitOrderUseCase(forwarder OrderForwarder, tel observability.Observability) *SubmitOrderUseCase {
	tel = application.OrNop(tel)
	return &SubmitOrderUseCase{
		forwarder: forwarder,
		tel:       tel,
		log:       tel.Logger().With(observability.F("service", gatewayService)),
		red:       application.NewRED(tel.Metrics()),
	}
}

// Execute forwards body verbatim. It adds no business logic; only a transport failure is turned
// into a downstream *failure.Error.
func (uc *SubmitOrderUseCase) Execute(ctx context.Context, body []byte) (_ Relay, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"SubmitOrder",
		attribute.String("use_case", useCaseSubmitOrder),
		attribute.Int("gateway.request_bytes", len(body)),
	)
	ctx, logger := logctx.Enrich(ctx, uc.log, observability.F("use_case", useCaseSubmitOrder))
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "RELAYED"
	var relay Relay

	defer func() {
		lat := uc.red.Observe(useCaseSubmitOrder, outcome, start)
		span.SetAttributes(attribute.Int("gateway.relayed_status", relay.Status))
		application.EndSpan(span, err, statusText)
		fields := application.DoneFields(outcome, statusText, lat, err)
		fields = append(fields, observability.F("relayed_status", relay.Status))
		logger.Info("use_case_done", fields...)
	}()

	status, respBody, ferr := uc.forwarder.Forward(ctx, body)
	if ferr != nil {
		outcome, statusText = application.OutcomeError, "ORDER_UNREACHABLE"
		return relay, failure.Wrap(failure.Downstream, MessageOrderUnreachable, ferr)
	}
	relay = Relay{Status: status, Body: respBody}
	if status >= 400 {
		statusText = "RELAYED_FAILURE"
	}
	return relay, nil
}
