package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrMissingID              = errors.New("order: id is required")
	ErrConflict               = errors.New("order: already exists")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount          = errors.New("order: amount must be greater than zero")
	ErrNoItems                = errors.New("order: at least one item is required")
	ErrMissingSKU             = errors.New("order: item_id is required")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

type Status string

const (
	StatusPending           Status = "pending"
	StatusInventoryReserved Status = "inventory_reserved"
	StatusInventoryFailed   Status = "inventory_failed"
	StatusCompleted         Status = "completed"
	StatusPaymentFailed     Status = "payment_failed"
)

// Order is the orchestrator's record of one fulfillment attempt.
type Order struct {
	ID            string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	SKU           string          `json:"item_id"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Status        Status          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	TraceID       string          `json:"trace_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	state OrderState
}

func New(id string, req Request, traceID string) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	item := req.Items[0]
	now := time.Now().UTC()
	return &Order{
		ID:            id,
		UserID:        req.UserID,
		SKU:           item.SKU,
		Quantity:      item.Quantity,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        StatusPending,
		TraceID:       traceID,
		CreatedAt:     now,
		UpdatedAt:     now,
		state:         pendingState{},
	}, nil
}

func (o *Order) InventoryReserved() error {
	return o.transition(func(s OrderState) (OrderState, error) { return s.OnInventoryReserved(o) })
}

func (o *Order) InventoryReservationFailed(reason string) error {
	return o.transition(func(s OrderState) (OrderState, error) { return s.OnInventoryFailed(o, reason) })
}

func (o *Order) PaymentSucceeded() error {
	return o.transition(func(s OrderState) (OrderState, error) { return s.OnPaymentSucceeded(o) })
}

func (o *Order) PaymentFailed(reason string) error {
	return o.transition(func(s OrderState) (OrderState, error) { return s.OnPaymentFailed(o, reason) })
}

func (o *Order) transition(apply func(OrderState) (OrderState, error)) error {
	next, err := apply(o.currentState())
	if err != nil {
		return err
	}
	o.state = next
	o.Status = next.Status()
	o.touch()
	return nil
}

// currentState rebuilds the state from Status for records loaded from a store.
func (o *Order) currentState() OrderState {
	if o.state != nil && o.state.Status() == o.Status {
		return o.state
	}
	return stateFor(o.Status)
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
