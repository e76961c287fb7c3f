package httppresentation

import (
	"context"
	"io"
	"net/http"

	appgw "github.com/Zhima-Mochi/minishop-tracing/internal/application/gateway"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-tracing/internal/observability"
)

type OrderSubmitter interface {
	Execute(ctx context.Context, body []byte) (appgw.Relay, error)
}

type GatewayHandler struct {
	submitter OrderSubmitter
}

func NewGatewayHandler(submitter OrderSubmitter) *GatewayHandler {
	return &GatewayHandler{submitter: submitter}
}

func (h *GatewayHandler) Register(rt *Router) {
	rt.Handle(http.MethodPost, "/api/order", h.handleSubmitOrder)
}

// handleSubmitOrder relays the orchestrator's status and body byte-for-byte.
func (h *GatewayHandler) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, failure.Wrap(failure.Validation, "Invalid order payload", err))
		return
	}

	relay, err := h.submitter.Execute(r.Context(), body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, statusBody{
			Status:   statusFailure,
			Message:  failure.MessageOf(err),
			Category: string(failure.CategoryOf(err)),
			TraceID:  observability.TraceID(r.Context()),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(relay.Status)
	_, _ = w.Write(relay.Body)
}
