package httppresentation

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domorder "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

// OrderCreator is the orchestrator as seen by its HTTP adapter.
type OrderCreator interface {
	Execute(ctx context.Context, req domorder.Request) (domorder.Result, error)
	Get(ctx context.Context, id string) (*domorder.Order, error)
}

type OrderHandler struct {
	orders OrderCreator
}

func NewOrderHandler(orders OrderCreator) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Register(rt *Router) {
	rt.Handle(http.MethodPost, "/order", h.handleCreateOrder)
	rt.Handle(http.MethodGet, "/order/{id}", h.handleGetOrder)
}

// orderRequest is the /order wire shape. user_id may be a string or a number, as on /payment/authorize.
type orderRequest struct {
	Items         []domorder.Item `json:"items"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	UserID        flexString      `json:"user_id"`
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		traceID := observability.TraceID(r.Context())
		writeJSON(w, http.StatusBadRequest, domorder.Failed("Invalid order payload", string(failure.Validation), traceID))
		return
	}

	result, err := h.orders.Execute(r.Context(), domorder.Request{
		Items:         req.Items,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
		UserID:        string(req.UserID),
	})
	writeJSON(w, orderStatus(err), result)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domorder.ErrNotFound):
		writeJSON(w, http.StatusNotFound, statusBody{Status: statusFailure, Message: "Order not found"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, statusBody{Status: statusFailure, Message: err.Error()})
	default:
		writeJSON(w, http.StatusOK, o)
	}
}

// orderStatus: downstream failures are 500, every other failure (validation, capacity, declined payment) is 400.
func orderStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case failure.Is(err, failure.Downstream):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
