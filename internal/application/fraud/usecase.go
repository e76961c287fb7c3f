package fraud

import (
	"context"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/application"
	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/fraud"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	fraudService    = "fraud-service"
	useCaseEvaluate = "fraud.evaluate"
)

// EvaluateUseCase draws a weighted verdict for each payment. It keeps no state besides the random source.
type EvaluateUseCase struct {
	weights domain.Weights

	mu  sync.Mutex
	src domain.Source

	tel observability.Observability
	log observability.Logger
	red application.RED
}

func NewEvaluateUseCase(weights domain.Weights, src domain.Source, tel observability.Observability) (*EvaluateUseCase, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	tel = application.OrNop(tel)
	return &EvaluateUseCase{
		weights: weights,
		src:     src,
		tel:     tel,
		log:     tel.Logger().With(observability.F("service", fraudService)),
		red:     application.NewRED(tel.Metrics()),
	}, nil
}

func (uc *EvaluateUseCase) Execute(ctx context.Context, req domain.Request) (_ domain.Verdict, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"EvaluateFraud",
		attribute.String("use_case", useCaseEvaluate),
		attribute.String("fraud.order_id", req.OrderID),
		attribute.String("fraud.user_id", req.UserID),
		attribute.String("fraud.payment_method", req.PaymentMethod),
		attribute.String("fraud.amount", req.Amount.String()),
	)
	ctx, logger := logctx.Enrich(ctx, uc.log, observability.F("use_case", useCaseEvaluate))
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "LEGITIMATE"
	var verdict domain.Verdict

	defer func() {
		lat := uc.red.Observe(useCaseEvaluate, outcome, start)
		application.EndSpan(span, err, statusText)
		fields := application.DoneFields(outcome, statusText, lat, err)
		fields = append(fields,
			observability.F("order_id", req.OrderID),
			observability.F("fraudulent", verdict.Fraudulent),
		)
		logger.Info("use_case_done", fields...)
	}()

	if err := ctx.Err(); err != nil {
		outcome, statusText = application.OutcomeError, "CONTEXT_CANCELED"
		return domain.Verdict{}, err
	}

	uc.mu.Lock()
	verdict.Fraudulent = domain.Decide(uc.weights, uc.src)
	uc.mu.Unlock()

	if verdict.Fraudulent {
		statusText = "FRAUDULENT"
	}
	span.SetAttributes(
		attribute.Bool("fraud.is_fraudulent", verdict.Fraudulent),
		attribute.String("fraud.status", verdict.Status()),
	)
	return verdict, nil
}
