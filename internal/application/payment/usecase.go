package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/application"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domfraud "github.com/Zhima-Mochi/minishop-tracing/internal/domain/fraud"
	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-tracing/internal/pkg/clock"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService   = "payment-service"
	useCaseAuthorize = "payment.authorize"
	useCaseLookup    = "payment.lookup"

	MessageLedgerFailed = "Payment ledger unavailable"
)

type AuthorizeUseCase struct {
	fraud  FraudPort
	ledger domain.Ledger
	clock  clock.Clock

	tel observability.Observability
	log observability.Logger
	red application.RED
}

func NewAuthorizeUseCase(fraud FraudPort, ledger domain.Ledger, clk clock.Clock, tel observability.Observability) *AuthorizeUseCase {
	tel = application.OrNop(tel)
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &AuthorizeUseCase{
		fraud:  fraud,
		ledger: ledger,
		clock:  clk,
		tel:    tel,
		log:    tel.Logger().With(observability.F("service", paymentService)),
		red:    application.NewRED(tel.Metrics()),
	}
}

// Execute validates the request, consults the fraud evaluator and records the decision.
// The Reply is always populated; err is a *failure.Error for every non-authorized outcome.
func (uc *AuthorizeUseCase) Execute(ctx context.Context, req domain.Request) (_ domain.Reply, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"AuthorizePayment",
		attribute.String("use_case", useCaseAuthorize),
		attribute.String("payment.order_id", req.OrderID),
		attribute.String("payment.user_id", req.UserID),
		attribute.String("payment.payment_method", req.PaymentMethod),
		attribute.String("payment.amount", req.Amount.String()),
	)
	ctx, logger := logctx.Enrich(ctx, uc.log,
		observability.F("use_case", useCaseAuthorize),
		observability.F("order_id", req.OrderID),
	)
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "AUTHORIZED"
	reply := domain.Reply{Outcome: domain.OutcomeAuthorized, Message: domain.MessageAuthorized}

	defer func() {
		lat := uc.red.Observe(useCaseAuthorize, outcome, start)
		span.SetAttributes(attribute.String("payment.status", string(reply.Outcome)))
		application.EndSpan(span, err, statusText)
		fields := application.DoneFields(outcome, statusText, lat, err)
		fields = append(fields, observability.F("payment_outcome", string(reply.Outcome)))
		logger.Info("use_case_done", fields...)
	}()

	if verr := req.Validate(); verr != nil {
		outcome, statusText = application.OutcomeError, "PAYMENT_DETAILS_INVALID"
		reply = domain.Reply{Outcome: domain.OutcomeInvalid, Message: domain.MessageInvalid, Category: string(failure.Validation)}
		return reply, failure.Wrap(failure.Validation, reply.Message, verr)
	}

	verdict, ferr := uc.fraud.Check(ctx, domfraud.Request{
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	})
	switch {
	case ferr != nil && errors.Is(ferr, failure.ErrUnreachable):
		outcome, statusText = application.OutcomeError, "FRAUD_UNREACHABLE"
		reply = domain.Reply{Outcome: domain.OutcomeDownstreamFailure, Message: domain.MessageFraudUnreachable, Category: string(failure.Downstream)}
		return reply, failure.Wrap(failure.Downstream, reply.Message, ferr)
	case ferr != nil || verdict.Fraudulent:
		outcome, statusText = application.OutcomeError, "FRAUD_DECLINED"
		reply = domain.Reply{Outcome: domain.OutcomeDeclined, Message: domain.MessageFraudDeclined, Category: string(failure.Fraud)}
		if lerr := uc.ledger.Record(ctx, domain.NewAuthorization(req, domain.StatusDeclined, uc.clock.Now())); lerr != nil {
			logger.Warn("ledger_record_failed", observability.F("error", lerr.Error()))
		}
		cause := ferr
		if cause == nil {
			cause = errors.New("payment: transaction flagged as fraudulent")
		}
		return reply, failure.Wrap(failure.Fraud, reply.Message, cause)
	}
	span.AddEvent("fraud.cleared",
		trace.WithAttributes(attribute.String("fraud.status", verdict.Status())),
	)

	if lerr := uc.ledger.Record(ctx, domain.NewAuthorization(req, domain.StatusAuthorized, uc.clock.Now())); lerr != nil {
		outcome, statusText = application.OutcomeError, "LEDGER_RECORD_FAILED"
		reply = domain.Reply{Outcome: domain.OutcomeDownstreamFailure, Message: MessageLedgerFailed, Category: string(failure.Downstream)}
		return reply, failure.Wrap(failure.Downstream, reply.Message, fmt.Errorf("payment: ledger: %w", lerr))
	}
	return reply, nil
}

// Authorization returns the ledger entry for orderID.
func (uc *AuthorizeUseCase) Authorization(ctx context.Context, orderID string) (_ *domain.Authorization, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"GetAuthorization",
		attribute.String("use_case", useCaseLookup),
		attribute.String("payment.order_id", orderID),
	)
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "OK"
	defer func() {
		uc.red.Observe(useCaseLookup, outcome, start)
		application.EndSpan(span, err, statusText)
	}()

	auth, err := uc.ledger.Get(ctx, orderID)
	if err != nil {
		outcome, statusText = application.OutcomeError, "LOOKUP_FAILED"
		return nil, err
	}
	return auth, nil
}
