package httppresentation

import (
	"context"
	"errors"
	"net/http"
	"time"

	appinv "github.com/Zhima-Mochi/minishop-tracing/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	dominv "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
)

type InventoryReserver interface {
	Execute(ctx context.Context, in appinv.CheckAndReserveInput) (dominv.Reply, error)
	Lookup(ctx context.Context, sku string) (*dominv.Record, error)
}

type InventoryHandler struct {
	inventory InventoryReserver
}

func NewInventoryHandler(inventory InventoryReserver) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

func (h *InventoryHandler) Register(rt *Router) {
	rt.Handle(http.MethodPost, "/inventory/check", h.handleCheck)
	rt.Handle(http.MethodGet, "/inventory/items/{sku}", h.handleGetItem)
}

type skuQuantityRequest struct {
	SKU      string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

func (h *InventoryHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req skuQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, failure.Wrap(failure.Validation, appinv.MessageInvalid, err))
		return
	}

	reply, err := h.inventory.Execute(r.Context(), appinv.CheckAndReserveInput{SKU: req.SKU, Quantity: req.Quantity})
	if err != nil {
		writeJSON(w, statusFor(err), inventoryCheckResponse{
			statusBody: statusBody{
				Status:   statusFailure,
				Message:  reply.Message,
				Category: string(failure.CategoryOf(err)),
			},
			StockCommitted: reply.StockCommitted(),
		})
		return
	}
	writeJSON(w, http.StatusOK, inventoryCheckResponse{
		statusBody:     statusBody{Status: statusSuccess, Message: reply.Message},
		StockCommitted: true,
	})
}

// inventoryCheckResponse tells the orchestrator whether stock was decremented, so a failure after
// the decrement is not mistaken for one before it.
type inventoryCheckResponse struct {
	statusBody
	StockCommitted bool `json:"stock_committed"`
}

type inventoryItemResponse struct {
	SKU         string    `json:"item_id"`
	Description string    `json:"description,omitempty"`
	Available   int       `json:"available_quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *InventoryHandler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	rec, err := h.inventory.Lookup(r.Context(), r.PathValue("sku"))
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		writeJSON(w, http.StatusNotFound, statusBody{Status: statusFailure, Message: "Item not found"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, statusBody{Status: statusFailure, Message: err.Error()})
	default:
		writeJSON(w, http.StatusOK, inventoryItemResponse{
			SKU:         rec.SKU,
			Description: rec.Description,
			Available:   rec.Available,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
}
