package order

import "time"

type Stage string

const (
	StageInventory Stage = "inventory"
	StagePayment   Stage = "payment"
)

// StockState says whether inventory/warehouse stock was decremented before the order failed.
// "committed" on a failed order is the documented consistency gap: nothing releases that stock.
type StockState string

const (
	StockNone      StockState = "none"
	StockCommitted StockState = "committed"
	StockUnknown   StockState = "unknown"
)

// OrderCompletedEvent is emitted when inventory was reserved and payment authorized.
type OrderCompletedEvent struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	SKU        string    `json:"item_id"`
	Quantity   int       `json:"quantity"`
	TraceID    string    `json:"trace_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (OrderCompletedEvent) EventName() string { return "order.completed" }

func NewOrderCompletedEvent(o *Order) OrderCompletedEvent {
	return OrderCompletedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		SKU:        o.SKU,
		Quantity:   o.Quantity,
		TraceID:    o.TraceID,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderFailedEvent is emitted when any stage fails.
type OrderFailedEvent struct {
	OrderID    string     `json:"order_id"`
	SKU        string     `json:"item_id"`
	Quantity   int        `json:"quantity"`
	Stage      Stage      `json:"stage"`
	Reason     string     `json:"reason"`
	Category   string     `json:"category"`
	StockState StockState `json:"stock_state"`
	TraceID    string     `json:"trace_id"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func (OrderFailedEvent) EventName() string { return "order.failed" }

func NewOrderFailedEvent(o *Order, stage Stage, category string, stock StockState) OrderFailedEvent {
	return OrderFailedEvent{
		OrderID:    o.ID,
		SKU:        o.SKU,
		Quantity:   o.Quantity,
		Stage:      stage,
		Reason:     o.FailureReason,
		Category:   category,
		StockState: stock,
		TraceID:    o.TraceID,
		OccurredAt: time.Now().UTC(),
	}
}
