package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

const AggregateType = "Order"

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusReserved  Status = "RESERVED"
	StatusCommitted Status = "COMMITTED"
	StatusShipped   Status = "SHIPPED"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrNoLineItems       = errors.New("order must have at least one line item")
	ErrInvalidLineItem   = errors.New("line item quantity must be positive and price non-negative")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// validTransitions defines allowed state transitions. Transitions are
// monotonic and one-directional; SHIPPED is terminal.
var validTransitions = map[Status][]Status{
	StatusCreated:   {StatusReserved},
	StatusReserved:  {StatusCommitted},
	StatusCommitted: {StatusShipped},
	StatusShipped:   {},
}

type LineItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
}

type ReservationInfo struct {
	WarehouseID string `json:"warehouse_id"`
	ReservedQty int    `json:"reserved_qty"`
	Status      string `json:"status"`
}

type ShipmentInfo struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

type Order struct {
	ID                  string           `json:"id"`
	Status              Status           `json:"status"`
	Items               []LineItem       `json:"items"`
	Reservation         *ReservationInfo `json:"reservation,omitempty"`
	Shipment            *ShipmentInfo    `json:"shipment,omitempty"`
	ScheduledPickupTime time.Time        `json:"scheduled_pickup_time,omitempty"`
	FulfillmentLeadTime time.Duration    `json:"fulfillment_lead_time,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`

	events []event.DomainEvent
}

// New creates an order in CREATED state. Orders without line items are
// rejected before any state exists.
func New(id string, items []LineItem, trigger event.TriggerContext) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoLineItems
	}
	for _, item := range items {
		if item.Quantity <= 0 || item.Price < 0 {
			return nil, fmt.Errorf("%w: sku %s", ErrInvalidLineItem, item.SKU)
		}
	}

	now := time.Now()
	o := &Order{
		ID:        id,
		Status:    StatusCreated,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.recordEvent(&OrderCreated{
		OrderID:        id,
		Items:          items,
		OccurredAtTime: now,
		TriggerContext: &trigger,
	})
	return o, nil
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

func (o *Order) transitionError(target Status) error {
	return fmt.Errorf("%w: order %s cannot transition from %s to %s",
		ErrInvalidTransition, o.ID, o.Status, target)
}

// ReserveInventory marks the order's inventory as reserved. Requires CREATED.
func (o *Order) ReserveInventory(info ReservationInfo) error {
	if !o.CanTransitionTo(StatusReserved) {
		return o.transitionError(StatusReserved)
	}
	now := time.Now()
	o.Status = StatusReserved
	o.Reservation = &info
	o.UpdatedAt = now
	o.recordEvent(&OrderReserved{
		OrderID:        o.ID,
		WarehouseID:    info.WarehouseID,
		ReservedQty:    info.ReservedQty,
		OccurredAtTime: now,
	})
	return nil
}

// Commit locks the order for fulfillment. Requires RESERVED.
func (o *Order) Commit() error {
	if !o.CanTransitionTo(StatusCommitted) {
		return o.transitionError(StatusCommitted)
	}
	now := time.Now()
	o.Status = StatusCommitted
	o.UpdatedAt = now
	o.recordEvent(&OrderCommitted{OrderID: o.ID, OccurredAtTime: now})
	return nil
}

// MarkShipped records shipment and moves the order to its terminal state.
// Requires COMMITTED.
func (o *Order) MarkShipped(info ShipmentInfo) error {
	if !o.CanTransitionTo(StatusShipped) {
		return o.transitionError(StatusShipped)
	}
	now := time.Now()
	o.Status = StatusShipped
	o.Shipment = &info
	o.UpdatedAt = now
	o.recordEvent(&OrderShipped{
		OrderID:        o.ID,
		Carrier:        info.Carrier,
		TrackingNumber: info.TrackingNumber,
		OccurredAtTime: now,
	})
	return nil
}

// SchedulePickup records a deferred pickup time and the lead time needed
// to fulfill ahead of it. Only meaningful before fulfillment starts.
func (o *Order) SchedulePickup(pickupTime time.Time, leadTime time.Duration) error {
	if o.Status != StatusCreated && o.Status != StatusReserved {
		return fmt.Errorf("%w: order %s cannot schedule pickup in status %s",
			ErrInvalidTransition, o.ID, o.Status)
	}
	now := time.Now()
	o.ScheduledPickupTime = pickupTime
	o.FulfillmentLeadTime = leadTime
	o.UpdatedAt = now
	o.recordEvent(&OrderPickupScheduled{
		OrderID:        o.ID,
		PickupTime:     pickupTime,
		LeadTime:       leadTime,
		OccurredAtTime: now,
	})
	return nil
}

// DefaultFulfillmentLeadTime is assumed for orders that carry none.
const DefaultFulfillmentLeadTime = 2 * time.Hour

// DueForFulfillment reports whether fulfillment should start now. Only
// RESERVED orders qualify: commitment requires a reservation, so orders
// whose intake could not reserve stay out of the scan until re-reserved.
// Orders without a scheduled pickup are due immediately.
func (o *Order) DueForFulfillment(now time.Time) bool {
	if o.Status != StatusReserved {
		return false
	}
	if o.ScheduledPickupTime.IsZero() {
		return true
	}
	lead := o.FulfillmentLeadTime
	if lead == 0 {
		lead = DefaultFulfillmentLeadTime
	}
	return !now.Before(o.ScheduledPickupTime.Add(-lead))
}

func (o *Order) recordEvent(e event.DomainEvent) {
	o.events = append(o.events, e)
}

// DrainEvents returns and clears the buffer of not-yet-published events.
// The caller publishes each exactly once, after the state change has been
// durably persisted.
func (o *Order) DrainEvents() []event.DomainEvent {
	events := o.events
	o.events = nil
	return events
}

// Repository is the persistence boundary for orders. Implementations honor
// the transaction carried in ctx when one is present.
type Repository interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindPreFulfillment(ctx context.Context) ([]*Order, error)
}
