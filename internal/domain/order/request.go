package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Item struct {
	SKU      string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Request is the client's order. Only Items[0] is fulfilled; the pipeline handles one sku per request.
type Request struct {
	Items         []Item          `json:"items"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	UserID        string          `json:"user_id"`
}

func (r Request) Validate() error {
	if len(r.Items) == 0 {
		return ErrNoItems
	}
	if r.Items[0].SKU == "" {
		return ErrMissingSKU
	}
	if r.Items[0].Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultFailure ResultStatus = "failure"
)

// Result is produced exactly once per Request and is not modified after it is returned.
type Result struct {
	Status   ResultStatus `json:"status"`
	Message  string       `json:"message"`
	TraceID  string       `json:"trace_id"`
	Category string       `json:"category,omitempty"`
	OrderID  string       `json:"order_id,omitempty"`
}

func Succeeded(orderID, traceID string) Result {
	return Result{
		Status:  ResultSuccess,
		Message: fmt.Sprintf("Order %s created and payment authorized", orderID),
		TraceID: traceID,
		OrderID: orderID,
	}
}

func Failed(message, category, traceID string) Result {
	return Result{
		Status:   ResultFailure,
		Message:  message,
		TraceID:  traceID,
		Category: category,
	}
}
