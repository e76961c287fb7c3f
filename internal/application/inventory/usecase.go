package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/application"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-tracing/internal/pkg/chaos"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	inventoryService    = "inventory-service"
	useCaseCheckReserve = "inventory.check_and_reserve"
	useCaseLookup       = "inventory.lookup"

	MessageInvalid     = "Invalid inventory request"
	MessageStoreFailed = "Inventory store unavailable"
)

type CheckAndReserveInput struct {
	SKU      string
	Quantity int
}

// CheckAndReserveUseCase decrements local availability and then asks the warehouse to reserve the
// same quantity. A warehouse failure is reported as downstream_failure and the local decrement stays.
type CheckAndReserveUseCase struct {
	repo      domain.Repository
	warehouse WarehousePort
	chaos     chaos.Injector
	lookups   singleflight.Group

	tel observability.Observability
	log observability.Logger
	red application.RED
}

func NewCheckAndReserveUseCase(repo domain.Repository, warehouse WarehousePort, injector chaos.Injector, tel observability.Observability) *CheckAndReserveUseCase {
	tel = application.OrNop(tel)
	if injector == nil {
		injector = chaos.Nop()
	}
	return &CheckAndReserveUseCase{
		repo:      repo,
		warehouse: warehouse,
		chaos:     injector,
		tel:       tel,
		log:       tel.Logger().With(observability.F("service", inventoryService)),
		red:       application.NewRED(tel.Metrics()),
	}
}

// Execute always returns a Reply. The error is a *failure.Error for every non-success outcome.
func (uc *CheckAndReserveUseCase) Execute(ctx context.Context, in CheckAndReserveInput) (_ domain.Reply, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"CheckAndReserveInventory",
		attribute.String("use_case", useCaseCheckReserve),
		attribute.String("inventory.sku", in.SKU),
		attribute.Int("inventory.requested_quantity", in.Quantity),
	)
	ctx, logger := logctx.Enrich(ctx, uc.log, observability.F("use_case", useCaseCheckReserve))
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "RESERVED"
	reply := domain.Reply{Outcome: domain.OutcomeSuccess, Message: domain.MessageReserved}

	defer func() {
		lat := uc.red.Observe(useCaseCheckReserve, outcome, start)
		span.SetAttributes(
			attribute.String("inventory.outcome", string(reply.Outcome)),
			attribute.Bool("inventory.stock_committed", reply.StockCommitted()),
		)
		application.EndSpan(span, err, statusText)
		fields := application.DoneFields(outcome, statusText, lat, err)
		fields = append(fields,
			observability.F("sku", in.SKU),
			observability.F("quantity", in.Quantity),
			observability.F("inventory_outcome", string(reply.Outcome)),
		)
		logger.Info("use_case_done", fields...)
	}()

	if in.SKU == "" || in.Quantity <= 0 {
		outcome, statusText = application.OutcomeError, "REQUEST_INVALID"
		reply = domain.Reply{Outcome: domain.OutcomeInsufficient, Message: MessageInvalid}
		return reply, failure.Wrap(failure.Validation, MessageInvalid, domain.ErrInvalidQuantity)
	}

	rec, rerr := uc.repo.Reserve(ctx, in.SKU, in.Quantity)
	switch {
	case rerr == nil:
	case errors.Is(rerr, domain.ErrNotFound), errors.Is(rerr, domain.ErrInsufficientStock):
		outcome, statusText = application.OutcomeError, "INVENTORY_INSUFFICIENT"
		reply = domain.Reply{Outcome: domain.OutcomeInsufficient, Message: domain.MessageInsufficient}
		return reply, failure.Wrap(failure.Capacity, reply.Message, rerr)
	default:
		outcome, statusText = application.OutcomeError, "REPO_RESERVE_FAILED"
		reply = domain.Reply{Outcome: domain.OutcomeStoreFailure, Message: MessageStoreFailed}
		return reply, failure.Wrap(failure.Downstream, reply.Message, fmt.Errorf("inventory: reserve: %w", rerr))
	}
	span.AddEvent("inventory.decremented",
		trace.WithAttributes(attribute.Int("inventory.available_quantity", rec.Available)),
	)

	uc.chaos.BeforeCall(ctx, chaos.PointBeforeWarehouse)
	werr := uc.warehouse.Reserve(ctx, in.SKU, in.Quantity)
	uc.chaos.BeforeCall(ctx, chaos.PointAfterWarehouse)

	if werr != nil {
		outcome = application.OutcomeError
		reply = domain.Reply{Outcome: domain.OutcomeDownstreamFailure, Message: domain.MessageWarehouseFailed}
		statusText = "WAREHOUSE_RESERVE_FAILED"
		// A warehouse that answered has rejected the reservation; only a missing answer is a 5xx.
		category := failure.Capacity
		if errors.Is(werr, failure.ErrUnreachable) {
			reply.Message = domain.MessageWarehouseUnreachable
			statusText = "WAREHOUSE_UNREACHABLE"
			category = failure.Downstream
		}
		// The local decrement above is not rolled back.
		logger.Warn("inventory_committed_without_warehouse",
			observability.F("sku", in.SKU),
			observability.F("quantity", in.Quantity),
			observability.F("error", werr.Error()),
		)
		return reply, failure.Wrap(category, reply.Message, fmt.Errorf("%w: %w", domain.ErrStockCommitted, werr))
	}
	return reply, nil
}

// Lookup returns the current record. Concurrent lookups of one sku share a single store read.
func (uc *CheckAndReserveUseCase) Lookup(ctx context.Context, sku string) (_ *domain.Record, err error) {
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"LookupInventory",
		attribute.String("use_case", useCaseLookup),
		attribute.String("inventory.sku", sku),
	)
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "OK"
	defer func() {
		uc.red.Observe(useCaseLookup, outcome, start)
		application.EndSpan(span, err, statusText)
	}()

	v, err, shared := uc.lookups.Do(sku, func() (any, error) {
		return uc.repo.Get(context.WithoutCancel(ctx), sku)
	})
	span.SetAttributes(attribute.Bool("inventory.lookup_shared", shared))
	if err != nil {
		outcome, statusText = application.OutcomeError, "LOOKUP_FAILED"
		return nil, err
	}
	return v.(*domain.Record).Clone(), nil
}
