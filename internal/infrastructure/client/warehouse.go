package client

import (
	"context"
	"net/http"

	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

const (
	EndpointWarehouseReserve = "/warehouse/reserve"

	MessageWarehouseUnreachable = "Error contacting warehouse service"
)

type WarehouseClient struct {
	base
	location string
}

// NewWarehouseClient reserves at location; an empty location lets the warehouse pick its default.
func NewWarehouseClient(opts Options, location string, tel observability.Observability) *WarehouseClient {
	return &WarehouseClient{base: newBase("warehouse-service", opts, tel), location: location}
}

func (c *WarehouseClient) Reserve(ctx context.Context, sku string, quantity int) error {
	resp, err := c.postJSON(ctx, EndpointWarehouseReserve, skuQuantity{SKU: sku, Quantity: quantity, Location: c.location})
	if err != nil {
		return failure.Wrap(failure.Downstream, MessageWarehouseUnreachable, err)
	}
	if resp.Status != http.StatusOK {
		return rejection(resp, failure.Capacity)
	}
	return nil
}
