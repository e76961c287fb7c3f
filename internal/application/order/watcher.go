package order

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-tracing/internal/application"
	domain "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-tracing/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	watcherService      = "order-watcher"
	useCasePartialWatch = "order.watch_partial_failure"
)

// PartialFailureWatcher listens for failed orders whose stock stayed decremented and makes the gap
// visible (log line + order_partial_failures_total). It does not compensate.
type PartialFailureWatcher struct {
	subscriber domoutbox.Subscriber

	tel      observability.Observability
	log      observability.Logger
	red      application.RED
	failures observability.Counter
}

func NewPartialFailureWatcher(subscriber domoutbox.Subscriber, tel observability.Observability) *PartialFailureWatcher {
	tel = application.OrNop(tel)
	return &PartialFailureWatcher{
		subscriber: subscriber,
		tel:        tel,
		log:        tel.Logger().With(observability.F("service", watcherService)),
		red:        application.NewRED(tel.Metrics()),
		failures:   tel.Metrics().Counter(observability.MOrderPartialFailures),
	}
}

func (w *PartialFailureWatcher) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domain.OrderFailedEvent{}.EventName(), w.Handle)
}

func (w *PartialFailureWatcher) Handle(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domain.OrderFailedEvent)
	if !ok {
		w.red.Observe(useCasePartialWatch, "ignored", time.Now())
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, application.SpanPrefix+"WatchPartialFailure",
		attribute.String("use_case", useCasePartialWatch),
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.OrderID),
		attribute.String("order.stock_state", string(evt.StockState)),
	)
	_, logger := logctx.Enrich(ctx, w.log,
		observability.F("use_case", useCasePartialWatch),
		observability.F("order_id", evt.OrderID),
	)
	start := time.Now()
	outcome, statusText := application.OutcomeSuccess, "NO_GAP"
	defer func() {
		lat := w.red.Observe(useCasePartialWatch, outcome, start)
		application.EndSpan(span, err, statusText)
		logger.Debug("use_case_done", application.DoneFields(outcome, statusText, lat, err)...)
	}()

	switch evt.StockState {
	case domain.StockCommitted:
		statusText = "GAP_DETECTED"
		w.failures.Add(1, observability.L("stage", string(evt.Stage)))
		logger.Warn("consistency_gap_detected",
			observability.F("stage", string(evt.Stage)),
			observability.F("sku", evt.SKU),
			observability.F("quantity", evt.Quantity),
			observability.F("reason", evt.Reason),
			observability.F("order_trace_id", evt.TraceID),
		)
	case domain.StockUnknown:
		statusText = "GAP_UNKNOWN"
		logger.Warn("stock_state_unknown",
			observability.F("stage", string(evt.Stage)),
			observability.F("sku", evt.SKU),
			observability.F("quantity", evt.Quantity),
			observability.F("order_trace_id", evt.TraceID),
		)
	}
	return nil
}
