package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/application"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/warehouse"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-tracing/internal/pkg/clock"

	"go.opentelemetry.io/otel/attribute"
)

const (
	warehouseService = "warehouse-service"
	useCaseReserve   = "warehouse.reserve"
	useCaseStock     = "warehouse.stock"

	DefaultLocation = "Warehouse-A"

	MessageInsufficient = "Insufficient inventory in warehouse"
	MessageInvalid      = "Invalid reservation request"
)

type ReserveInput struct {
	SKU      string
	Quantity int
	// Location defaults to the use case's configured location when empty.
	Location string
}

type ReserveResult struct {
	Record  *domain.Record
	Message string
}

type ReserveUseCase struct {
	repo            domain.Repository
	clock           clock.Clock
	defaultLocation string

	tel observability.Observability
	log observability.Logger
	red application.RED
}

func NewReserveUseCase(repo domain.Repository, clk clock.Clock, defaultLocation string, tel observability.Observability) *ReserveUseCase {
	tel = application.OrNop(tel)
	if clk == nil {
		clk = clock.NewSystem()
	}
	if defaultLocation == "" {
		defaultLocation = DefaultLocation
	}
	return &ReserveUseCase{
		repo:            repo,
		clock:           clk,
		defaultLocation: defaultLocation,
		tel:             tel,
		log:             tel.Logger().With(observability.F("service", warehouseService)),
		red:             application.NewRED(tel.Metrics()),
	}
}

func (uc *ReserveUseCase) Execute(ctx context.Context, in ReserveInput) (_ *ReserveResult, err error) {
	location := in.Location
	if location == "" {
		location = uc.defaultLocation
	}
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"ReserveWarehouseStock",
		attribute.String("use_case", useCaseReserve),
		attribute.String("warehouse.sku", in.SKU),
		attribute.Int("warehouse.requested_quantity", in.Quantity),
		attribute.String("warehouse.location", location),
	)
	ctx, logger := logctx.Enrich(ctx, uc.log, observability.F("use_case", useCaseReserve))
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "RESERVED"

	defer func() {
		lat := uc.red.Observe(useCaseReserve, outcome, start)
		application.EndSpan(span, err, statusText)
		fields := application.DoneFields(outcome, statusText, lat, err)
		fields = append(fields,
			observability.F("sku", in.SKU),
			observability.F("location", location),
			observability.F("quantity", in.Quantity),
		)
		logger.Info("use_case_done", fields...)
	}()

	if in.SKU == "" || in.Quantity <= 0 {
		outcome, statusText = application.OutcomeError, "REQUEST_INVALID"
		return nil, failure.Wrap(failure.Validation, MessageInvalid, domain.ErrInvalidQuantity)
	}

	rec, rerr := uc.repo.Reserve(ctx, domain.Key{SKU: in.SKU, Location: location}, in.Quantity, uc.clock.Now())
	switch {
	case rerr == nil:
	case errors.Is(rerr, domain.ErrNotFound), errors.Is(rerr, domain.ErrInsufficientStock):
		outcome, statusText = application.OutcomeError, "WAREHOUSE_INSUFFICIENT"
		return nil, failure.Wrap(failure.Capacity, MessageInsufficient, rerr)
	default:
		outcome, statusText = application.OutcomeError, "REPO_RESERVE_FAILED"
		return nil, failure.Wrap(failure.Downstream, "Warehouse store unavailable", fmt.Errorf("warehouse: reserve: %w", rerr))
	}

	span.SetAttributes(
		attribute.Int("warehouse.available_quantity", rec.Available),
		attribute.Int("warehouse.reserved_quantity", rec.Reserved),
		attribute.String("warehouse.status", rec.Status),
	)
	return &ReserveResult{
		Record:  rec,
		Message: fmt.Sprintf("Reserved %d of item %s", in.Quantity, in.SKU),
	}, nil
}

// Stock is the read side: the current record for (sku, location).
func (uc *ReserveUseCase) Stock(ctx context.Context, sku, location string) (_ *domain.Record, err error) {
	if location == "" {
		location = uc.defaultLocation
	}
	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"GetWarehouseStock",
		attribute.String("use_case", useCaseStock),
		attribute.String("warehouse.sku", sku),
		attribute.String("warehouse.location", location),
	)
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "OK"
	defer func() {
		uc.red.Observe(useCaseStock, outcome, start)
		application.EndSpan(span, err, statusText)
	}()

	rec, err := uc.repo.Get(ctx, domain.Key{SKU: sku, Location: location})
	if err != nil {
		outcome, statusText = application.OutcomeError, "STOCK_LOOKUP_FAILED"
		return nil, err
	}
	return rec, nil
}
