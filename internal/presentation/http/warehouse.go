package httppresentation

import (
	"context"
	"errors"
	"net/http"
	"time"

	appwh "github.com/Zhima-Mochi/minishop-tracing/internal/application/warehouse"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domwh "github.com/Zhima-Mochi/minishop-tracing/internal/domain/warehouse"
)

type WarehouseReserver interface {
	Execute(ctx context.Context, in appwh.ReserveInput) (*appwh.ReserveResult, error)
	Stock(ctx context.Context, sku, location string) (*domwh.Record, error)
}

type WarehouseHandler struct {
	warehouse WarehouseReserver
}

func NewWarehouseHandler(warehouse WarehouseReserver) *WarehouseHandler {
	return &WarehouseHandler{warehouse: warehouse}
}

func (h *WarehouseHandler) Register(rt *Router) {
	rt.Handle(http.MethodPost, "/warehouse/reserve", h.handleReserve)
	rt.Handle(http.MethodGet, "/warehouse/stock/{sku}", h.handleGetStock)
}

func (h *WarehouseHandler) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req skuQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, failure.Wrap(failure.Validation, appwh.MessageInvalid, err))
		return
	}

	res, err := h.warehouse.Execute(r.Context(), appwh.ReserveInput{SKU: req.SKU, Quantity: req.Quantity, Location: req.Location})
	if err != nil {
		writeFailure(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, statusBody{Status: statusSuccess, Message: res.Message})
}

type warehouseStockResponse struct {
	SKU            string     `json:"item_id"`
	Location       string     `json:"location"`
	Available      int        `json:"available_quantity"`
	Reserved       int        `json:"reserved_quantity"`
	LastReservedAt *time.Time `json:"last_reservation_timestamp,omitempty"`
	Status         string     `json:"status,omitempty"`
}

func (h *WarehouseHandler) handleGetStock(w http.ResponseWriter, r *http.Request) {
	rec, err := h.warehouse.Stock(r.Context(), r.PathValue("sku"), r.URL.Query().Get("location"))
	switch {
	case errors.Is(err, domwh.ErrNotFound):
		writeJSON(w, http.StatusNotFound, statusBody{Status: statusFailure, Message: "Item not stocked at location"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, statusBody{Status: statusFailure, Message: err.Error()})
	default:
		writeJSON(w, http.StatusOK, warehouseStockResponse{
			SKU:            rec.SKU,
			Location:       rec.Location,
			Available:      rec.Available,
			Reserved:       rec.Reserved,
			LastReservedAt: rec.LastReservedAt,
			Status:         rec.Status,
		})
	}
}
