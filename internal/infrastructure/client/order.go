package client

import (
	"context"

	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

const EndpointOrder = "/order"

// OrderForwarder posts the gateway's raw body to the orchestrator.
type OrderForwarder struct{ base }

func NewOrderForwarder(opts Options, tel observability.Observability) *OrderForwarder {
	return &OrderForwarder{base: newBase("order-service", opts, tel)}
}

func (c *OrderForwarder) Forward(ctx context.Context, body []byte) (int, []byte, error) {
	resp, err := c.post(ctx, EndpointOrder, body)
	if err != nil {
		return 0, nil, err
	}
	return resp.Status, resp.Body, nil
}
