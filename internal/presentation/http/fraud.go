package httppresentation

import (
	"context"
	"net/http"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domfraud "github.com/Zhima-Mochi/minishop-tracing/internal/domain/fraud"
)

type FraudEvaluator interface {
	Execute(ctx context.Context, req domfraud.Request) (domfraud.Verdict, error)
}

type FraudHandler struct {
	fraud FraudEvaluator
}

func NewFraudHandler(fraud FraudEvaluator) *FraudHandler {
	return &FraudHandler{fraud: fraud}
}

func (h *FraudHandler) Register(rt *Router) {
	rt.Handle(http.MethodPost, "/fraud/check", h.handleCheck)
}

func (h *FraudHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, failure.Wrap(failure.Validation, "Invalid fraud check request", err))
		return
	}

	verdict, err := h.fraud.Execute(r.Context(), domfraud.Request{
		OrderID:       string(req.OrderID),
		UserID:        string(req.UserID),
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	})
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, failure.Wrap(failure.Downstream, "Fraud evaluation failed", err))
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: verdict.Status(), Message: verdict.Message()})
}
