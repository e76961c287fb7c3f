package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	dominv "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

const (
	EndpointInventoryCheck = "/inventory/check"

	MessageInventoryUnreachable = "Error contacting inventory service"
)

type InventoryClient struct{ base }

func NewInventoryClient(opts Options, tel observability.Observability) *InventoryClient {
	return &InventoryClient{base: newBase("inventory-service", opts, tel)}
}

type skuQuantity struct {
	SKU      string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Location string `json:"location,omitempty"`
}

func (c *InventoryClient) CheckAndReserve(ctx context.Context, sku string, quantity int) error {
	resp, err := c.postJSON(ctx, EndpointInventoryCheck, skuQuantity{SKU: sku, Quantity: quantity})
	if err != nil {
		return failure.Wrap(failure.Downstream, MessageInventoryUnreachable, err)
	}
	if resp.Status != http.StatusOK {
		rej := rejection(resp, failure.Capacity)
		var flag struct {
			StockCommitted bool `json:"stock_committed"`
		}
		if json.Unmarshal(resp.Body, &flag) == nil && flag.StockCommitted {
			rej.Err = fmt.Errorf("%w: %w", dominv.ErrStockCommitted, rej.Err)
		}
		return rej
	}
	return nil
}
