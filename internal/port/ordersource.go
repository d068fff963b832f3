package port

import (
	"context"
	"errors"
	"time"
)

// ErrOrderSourceSystem wraps transient order-source failures.
var ErrOrderSourceSystem = errors.New("order source system error")

type ObservedLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
}

// ObservationResult is one externally observed order waiting for intake.
type ObservationResult struct {
	OrderID             string         `json:"order_id"`
	WarehouseID         string         `json:"warehouse_id"`
	Lines               []ObservedLine `json:"lines"`
	ScheduledPickupTime time.Time      `json:"scheduled_pickup_time,omitempty"`
	ObservedAt          time.Time      `json:"observed_at"`
}

type OrderSourcePort interface {
	FetchNewOrders(ctx context.Context, endpoint string, since time.Time) ([]ObservationResult, error)
	MarkOrderAsProcessed(ctx context.Context, endpoint, orderID string) (bool, error)
}
