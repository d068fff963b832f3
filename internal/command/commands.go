package command

import (
	"time"

	"github.com/levijcl/Wei-sub002/internal/domain/order"
	"github.com/levijcl/Wei-sub002/internal/domain/picking"
)

type CreateOrder struct {
	OrderID             string           `json:"order_id"`
	WarehouseID         string           `json:"warehouse_id"`
	Items               []order.LineItem `json:"items"`
	ScheduledPickupTime time.Time        `json:"scheduled_pickup_time,omitempty"`
	FulfillmentLeadTime time.Duration    `json:"fulfillment_lead_time,omitempty"`
}

// CreateOrderResult reports the intake outcome. Reserved is false when at
// least one line reservation was rejected; per-line failures are listed so
// the caller can see which SKUs were short.
type CreateOrderResult struct {
	Order        *order.Order `json:"order"`
	Reserved     bool         `json:"reserved"`
	Duplicate    bool         `json:"duplicate,omitempty"`
	LineFailures []string     `json:"line_failures,omitempty"`
}

type InitiateFulfillment struct {
	OrderID  string `json:"order_id"`
	Priority int    `json:"priority"`
}

type ApplyWesTaskStatus struct {
	TaskID string         `json:"task_id"`
	Status picking.Status `json:"status"`
}

type CancelPickingTask struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

type AdjustTaskPriority struct {
	TaskID   string `json:"task_id"`
	Priority int    `json:"priority"`
}

type MarkOrderShipped struct {
	OrderID        string `json:"order_id"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}
