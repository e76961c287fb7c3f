package order

import (
	"context"

	dompay "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
)

type IDGenerator interface {
	NewID() string
}

// InventoryPort runs the inventory check-and-reserve hop. Non-nil errors are *failure.Error values
// carrying the inventory's message and category; transport failures also wrap failure.ErrUnreachable,
// and failures after the inventory's own decrement wrap inventory.ErrStockCommitted.
type InventoryPort interface {
	CheckAndReserve(ctx context.Context, sku string, quantity int) error
}

// PaymentPort runs the payment authorization hop, with the same error contract as InventoryPort.
type PaymentPort interface {
	Authorize(ctx context.Context, req dompay.Request) error
}
