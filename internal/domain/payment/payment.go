package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("payment: authorization not found")
	ErrInvalidDetails = errors.New("payment: invalid payment details")
)

type Status string

const (
	StatusAuthorized Status = "authorized"
	StatusDeclined   Status = "declined"
)

// Request carries the four fields an authorization needs. Amount zero means "absent".
type Request struct {
	OrderID       string
	UserID        string
	PaymentMethod string
	Amount        decimal.Decimal
}

// Validate reports ErrInvalidDetails when any field is absent or empty, regardless of the others.
func (r Request) Validate() error {
	if r.OrderID == "" || r.UserID == "" || r.PaymentMethod == "" || !r.Amount.IsPositive() {
		return ErrInvalidDetails
	}
	return nil
}

// Authorization is one ledger entry, keyed by order id.
type Authorization struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        Status          `json:"status"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

func NewAuthorization(req Request, status Status, at time.Time) *Authorization {
	return &Authorization{
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
		Status:        status,
		RecordedAt:    at.UTC(),
	}
}
