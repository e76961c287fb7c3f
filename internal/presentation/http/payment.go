package httppresentation

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	dompay "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
)

type PaymentAuthorizer interface {
	Execute(ctx context.Context, req dompay.Request) (dompay.Reply, error)
	Authorization(ctx context.Context, orderID string) (*dompay.Authorization, error)
}

type PaymentHandler struct {
	payments PaymentAuthorizer
}

func NewPaymentHandler(payments PaymentAuthorizer) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) Register(rt *Router) {
	rt.Handle(http.MethodPost, "/payment/authorize", h.handleAuthorize)
	rt.Handle(http.MethodGet, "/payment/authorizations/{order_id}", h.handleGetAuthorization)
}

// paymentRequest is shared with /fraud/check.
type paymentRequest struct {
	OrderID       flexString      `json:"order_id"`
	UserID        flexString      `json:"user_id"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
}

func (h *PaymentHandler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, failure.Wrap(failure.Validation, dompay.MessageInvalid, err))
		return
	}

	reply, err := h.payments.Execute(r.Context(), dompay.Request{
		OrderID:       string(req.OrderID),
		UserID:        string(req.UserID),
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	})
	if err != nil {
		writeJSON(w, statusFor(err), statusBody{
			Status:   statusFailure,
			Message:  reply.Message,
			Category: reply.Category,
			OrderID:  string(req.OrderID),
		})
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: statusSuccess, Message: reply.Message, OrderID: string(req.OrderID)})
}

func (h *PaymentHandler) handleGetAuthorization(w http.ResponseWriter, r *http.Request) {
	auth, err := h.payments.Authorization(r.Context(), r.PathValue("order_id"))
	switch {
	case errors.Is(err, dompay.ErrNotFound):
		writeJSON(w, http.StatusNotFound, statusBody{Status: statusFailure, Message: "Authorization not found"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, statusBody{Status: statusFailure, Message: err.Error()})
	default:
		writeJSON(w, http.StatusOK, auth)
	}
}
