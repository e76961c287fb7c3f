package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/application"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	dominv "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-tracing/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
	useCaseOrderGet    = "order.get"
	publishPeer        = "outbox"
	publishTimeout     = 300 * time.Millisecond

	MessageInventoryUnreachable = "Error contacting inventory service"
	MessagePaymentUnreachable   = "Error contacting payment service"
	MessagePaymentFailed        = "Payment authorization failed"
)

// CreateOrderUseCase runs the fulfillment pipeline: inventory check-and-reserve, then payment
// authorization. Stock reserved by the first stage is not released when the second one fails;
// the order.failed event reports it with StockState=committed.
type CreateOrderUseCase struct {
	repo        domain.Repository
	inventory   InventoryPort
	payment     PaymentPort
	idGenerator IDGenerator
	publisher   domoutbox.Publisher

	tel observability.Observability
	log observability.Logger
	red application.RED

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewCreateOrderUseCase(
	repo domain.Repository,
	inventory InventoryPort,
	payment PaymentPort,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *CreateOrderUseCase {
	tel = application.OrNop(tel)
	metrics := tel.Metrics()
	return &CreateOrderUseCase{
		repo:         repo,
		inventory:    inventory,
		payment:      payment,
		idGenerator:  idGen,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		red:          application.NewRED(metrics),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// Execute always returns a Result carrying the trace id. err is the *failure.Error behind a failure
// Result, so the transport can pick the status code from its category.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req domain.Request) (_ domain.Result, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.String("order.user_id", req.UserID),
		attribute.String("order.payment_method", req.PaymentMethod),
		attribute.String("order.amount", req.Amount.String()),
		attribute.Int("order.item_count", len(req.Items)),
	)
	ctx, logger := logctx.Enrich(ctx, uc.log, observability.F("use_case", useCaseOrderCreate))
	// A client disconnect must not abort hops that may already have mutated stock.
	ctx = context.WithoutCancel(ctx)

	traceID := observability.TraceID(ctx)
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "ORDER_COMPLETED"
	var entity *domain.Order

	defer func() {
		lat := uc.red.Observe(useCaseOrderCreate, outcome, start)
		application.EndSpan(span, err, statusText)
		fields := application.DoneFields(outcome, statusText, lat, err)
		if entity != nil {
			fields = append(fields,
				observability.F("order_id", entity.ID),
				observability.F("order_status", string(entity.Status)),
			)
		}
		logger.Info("use_case_done", fields...)
	}()

	if verr := req.Validate(); verr != nil {
		outcome, statusText = application.OutcomeError, "ORDER_INVALID"
		msg := validationMessage(verr)
		return domain.Failed(msg, string(failure.Validation), traceID), failure.Wrap(failure.Validation, msg, verr)
	}
	if len(req.Items) > 1 {
		logger.Warn("extra_items_ignored", observability.F("item_count", len(req.Items)))
	}

	entity, err = domain.New(uc.idGenerator.NewID(), req, traceID)
	if err != nil {
		outcome, statusText = application.OutcomeError, "DOMAIN_CONSTRUCTION_FAILED"
		return domain.Failed(validationMessage(err), string(failure.Validation), traceID), failure.Wrap(failure.Validation, validationMessage(err), err)
	}
	span.SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.String("inventory.sku", entity.SKU),
		attribute.Int("inventory.requested_quantity", entity.Quantity),
	)
	if ierr := uc.repo.Insert(ctx, entity); ierr != nil {
		logger.Error("order_insert_failed", observability.F("error", ierr.Error()))
	}

	// Stage 1: inventory, which in turn reserves at the warehouse.
	if ierr := uc.inventory.CheckAndReserve(ctx, entity.SKU, entity.Quantity); ierr != nil {
		outcome = application.OutcomeError
		stock := domain.StockNone
		msg, category := failure.MessageOf(ierr), failure.CategoryOf(ierr)
		switch {
		case errors.Is(ierr, failure.ErrUnreachable):
			statusText, stock = "INVENTORY_UNREACHABLE", domain.StockUnknown
			msg, category = MessageInventoryUnreachable, failure.Downstream
		case errors.Is(ierr, dominv.ErrStockCommitted):
			// inventory decremented its own stock before the warehouse failed
			statusText, stock = "INVENTORY_DOWNSTREAM_FAILED", domain.StockCommitted
		case category == failure.Downstream:
			statusText = "INVENTORY_FAILED"
		default:
			statusText = "INVENTORY_REJECTED"
		}
		if category == "" {
			category = failure.Capacity
		}
		uc.fail(ctx, logger, entity, domain.StageInventory, msg, category, stock)
		return domain.Failed(msg, string(category), traceID), failure.Wrap(category, msg, ierr)
	}
	uc.transition(ctx, logger, entity, entity.InventoryReserved)
	span.AddEvent("order.inventory_reserved")

	// Stage 2: payment, which consults the fraud evaluator.
	perr := uc.payment.Authorize(ctx, dompay.Request{
		OrderID:       entity.ID,
		UserID:        entity.UserID,
		PaymentMethod: entity.PaymentMethod,
		Amount:        entity.Amount,
	})
	if perr != nil {
		outcome = application.OutcomeError
		msg, category := MessagePaymentFailed, failure.CategoryOf(perr)
		statusText = "PAYMENT_FAILED"
		if errors.Is(perr, failure.ErrUnreachable) {
			statusText = "PAYMENT_UNREACHABLE"
			msg, category = MessagePaymentUnreachable, failure.Downstream
		}
		if category == "" {
			category = failure.Downstream
		}
		uc.fail(ctx, logger, entity, domain.StagePayment, msg, category, domain.StockCommitted)
		return domain.Failed(msg, string(category), traceID), failure.Wrap(category, msg, perr)
	}

	uc.transition(ctx, logger, entity, entity.PaymentSucceeded)
	uc.publish(ctx, logger, domain.NewOrderCompletedEvent(entity))
	span.AddEvent("order.completed",
		trace.WithAttributes(attribute.String("order.id", entity.ID)),
	)
	return domain.Succeeded(entity.ID, traceID), nil
}

// Get returns the ledger entry of one order.
func (uc *CreateOrderUseCase) Get(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"GetOrder",
		attribute.String("use_case", useCaseOrderGet),
		attribute.String("order.id", id),
	)
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "OK"
	defer func() {
		uc.red.Observe(useCaseOrderGet, outcome, start)
		application.EndSpan(span, err, statusText)
	}()

	o, err := uc.repo.Get(ctx, id)
	if err != nil {
		outcome, statusText = application.OutcomeError, "ORDER_LOOKUP_FAILED"
		return nil, err
	}
	return o, nil
}

func (uc *CreateOrderUseCase) fail(
	ctx context.Context,
	logger observability.Logger,
	entity *domain.Order,
	stage domain.Stage,
	reason string,
	category failure.Category,
	stock domain.StockState,
) {
	apply := entity.PaymentFailed
	if stage == domain.StageInventory {
		apply = entity.InventoryReservationFailed
	}
	uc.transition(ctx, logger, entity, func() error { return apply(reason) })
	uc.publish(ctx, logger, domain.NewOrderFailedEvent(entity, stage, string(category), stock))
}

// transition applies a state change and persists it. Ledger problems are logged only: the
// ledger is a record of the pipeline, it never decides its outcome.
func (uc *CreateOrderUseCase) transition(ctx context.Context, logger observability.Logger, entity *domain.Order, apply func() error) {
	if err := apply(); err != nil {
		logger.Error("order_transition_failed",
			observability.F("order_id", entity.ID),
			observability.F("status", string(entity.Status)),
			observability.F("error", err.Error()),
		)
		return
	}
	if err := uc.repo.Update(ctx, entity); err != nil {
		logger.Error("order_update_failed",
			observability.F("order_id", entity.ID),
			observability.F("error", err.Error()),
		)
	}
}

func (uc *CreateOrderUseCase) publish(ctx context.Context, logger observability.Logger, e domoutbox.Event) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	pubOutcome := application.OutcomeSuccess
	if err := uc.publisher.Publish(pubCtx, e); err != nil {
		pubOutcome = application.OutcomeError
		trace.SpanFromContext(ctx).RecordError(err)
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", pubOutcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
	)
}

func validationMessage(err error) string {
	return fmt.Sprintf("Invalid order: %s", strings.TrimPrefix(err.Error(), "order: "))
}
