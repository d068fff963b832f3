// Package port defines the contracts for the external systems this core
// orchestrates against. Adapters implement them; the core only sees these
// interfaces and the error taxonomy below.
package port

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientInventory is a business rejection, never retried.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrReservationNotFound signals a data-consistency break between this
	// system and the inventory service. Logged and surfaced, not retried.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrInventorySystem wraps transient inventory-service failures. Safe
	// to retry at the scheduler-tick or event-redelivery layer because
	// every mutating command is idempotent by its source reference.
	ErrInventorySystem = errors.New("inventory system error")
)

type StockSnapshot struct {
	SKU         string    `json:"sku"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	ObservedAt  time.Time `json:"observed_at"`
}

type InventoryPort interface {
	CreateReservation(ctx context.Context, sku, warehouseID, orderID string, quantity int) (reservationID string, err error)
	ConsumeReservation(ctx context.Context, reservationID string) error
	ReleaseReservation(ctx context.Context, reservationID string) error
	IncreaseInventory(ctx context.Context, sku, warehouseID string, quantity int, reason string) error
	AdjustInventory(ctx context.Context, sku, warehouseID string, delta int, reason string) error
	GetInventorySnapshot(ctx context.Context) ([]StockSnapshot, error)
}
