package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/levijcl/Wei-sub002/internal/port"
)

// InventoryHTTPAdapter implements port.InventoryPort against the external
// inventory service's REST API.
type InventoryHTTPAdapter struct {
	httpClient
}

func NewInventoryHTTPAdapter(baseURL string, timeout time.Duration) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{httpClient: newHTTPClient(baseURL, timeout)}
}

type reservationRequest struct {
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouse_id"`
	OrderID     string `json:"order_id"`
	Quantity    int    `json:"quantity"`
}

type reservationResponse struct {
	ReservationID string `json:"reservation_id"`
}

func (a *InventoryHTTPAdapter) CreateReservation(ctx context.Context, sku, warehouseID, orderID string, quantity int) (string, error) {
	var resp reservationResponse
	status, err := a.doJSON(ctx, http.MethodPost, "/reservations", reservationRequest{
		SKU:         sku,
		WarehouseID: warehouseID,
		OrderID:     orderID,
		Quantity:    quantity,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrInventorySystem, err)
	}
	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		return resp.ReservationID, nil
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return "", port.ErrInsufficientInventory
	default:
		return "", fmt.Errorf("%w: create reservation returned %d", port.ErrInventorySystem, status)
	}
}

func (a *InventoryHTTPAdapter) ConsumeReservation(ctx context.Context, reservationID string) error {
	return a.settleReservation(ctx, reservationID, "consume")
}

func (a *InventoryHTTPAdapter) ReleaseReservation(ctx context.Context, reservationID string) error {
	return a.settleReservation(ctx, reservationID, "release")
}

func (a *InventoryHTTPAdapter) settleReservation(ctx context.Context, reservationID, action string) error {
	status, err := a.doJSON(ctx, http.MethodPost, fmt.Sprintf("/reservations/%s/%s", reservationID, action), nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", port.ErrInventorySystem, err)
	}
	switch {
	case status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusNotFound:
		return port.ErrReservationNotFound
	default:
		return fmt.Errorf("%w: %s reservation returned %d", port.ErrInventorySystem, action, status)
	}
}

type stockMutationRequest struct {
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
}

func (a *InventoryHTTPAdapter) IncreaseInventory(ctx context.Context, sku, warehouseID string, quantity int, reason string) error {
	status, err := a.doJSON(ctx, http.MethodPost, "/stock/increase", stockMutationRequest{
		SKU: sku, WarehouseID: warehouseID, Quantity: quantity, Reason: reason,
	}, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", port.ErrInventorySystem, err)
	}
	if status >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: increase returned %d", port.ErrInventorySystem, status)
	}
	return nil
}

func (a *InventoryHTTPAdapter) AdjustInventory(ctx context.Context, sku, warehouseID string, delta int, reason string) error {
	status, err := a.doJSON(ctx, http.MethodPost, "/stock/adjust", stockMutationRequest{
		SKU: sku, WarehouseID: warehouseID, Quantity: delta, Reason: reason,
	}, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", port.ErrInventorySystem, err)
	}
	switch {
	case status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		// Negative adjustment below zero on-hand.
		return port.ErrInsufficientInventory
	default:
		return fmt.Errorf("%w: adjust returned %d", port.ErrInventorySystem, status)
	}
}

func (a *InventoryHTTPAdapter) GetInventorySnapshot(ctx context.Context) ([]port.StockSnapshot, error) {
	var snapshots []port.StockSnapshot
	status, err := a.doJSON(ctx, http.MethodGet, "/stock/snapshot", nil, &snapshots)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrInventorySystem, err)
	}
	if status >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: snapshot returned %d", port.ErrInventorySystem, status)
	}
	return snapshots, nil
}
