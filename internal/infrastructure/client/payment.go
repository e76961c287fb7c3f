package client

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	dompay "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

const (
	EndpointPaymentAuthorize = "/payment/authorize"

	MessagePaymentUnreachable = "Error contacting payment service"
)

type PaymentClient struct{ base }

func NewPaymentClient(opts Options, tel observability.Observability) *PaymentClient {
	return &PaymentClient{base: newBase("payment-service", opts, tel)}
}

// paymentBody is the wire shape shared by /payment/authorize and /fraud/check.
type paymentBody struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
}

func (c *PaymentClient) Authorize(ctx context.Context, req dompay.Request) error {
	resp, err := c.postJSON(ctx, EndpointPaymentAuthorize, paymentBody{
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	})
	if err != nil {
		return failure.Wrap(failure.Downstream, MessagePaymentUnreachable, err)
	}
	if resp.Status != http.StatusOK {
		fallback := failure.Validation
		if resp.Status == http.StatusForbidden {
			fallback = failure.Fraud
		}
		return rejection(resp, fallback)
	}
	return nil
}
