package order

import (
	"encoding/json"
	"time"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

const (
	EventOrderCreated         = "OrderCreatedEvent"
	EventOrderReserved        = "OrderReservedEvent"
	EventOrderCommitted       = "OrderCommittedEvent"
	EventOrderShipped         = "OrderShippedEvent"
	EventOrderPickupScheduled = "OrderPickupScheduledEvent"
)

type OrderCreated struct {
	OrderID        string                `json:"order_id"`
	Items          []LineItem            `json:"items"`
	OccurredAtTime time.Time             `json:"occurred_at"`
	TriggerContext *event.TriggerContext `json:"trigger,omitempty"`
}

func (e *OrderCreated) EventName() string               { return EventOrderCreated }
func (e *OrderCreated) OccurredAt() time.Time           { return e.OccurredAtTime }
func (e *OrderCreated) AggregateRef() (string, string)  { return AggregateType, e.OrderID }
func (e *OrderCreated) Trigger() *event.TriggerContext  { return e.TriggerContext }

type OrderReserved struct {
	OrderID        string    `json:"order_id"`
	WarehouseID    string    `json:"warehouse_id"`
	ReservedQty    int       `json:"reserved_qty"`
	OccurredAtTime time.Time `json:"occurred_at"`
}

func (e *OrderReserved) EventName() string              { return EventOrderReserved }
func (e *OrderReserved) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *OrderReserved) AggregateRef() (string, string) { return AggregateType, e.OrderID }

type OrderCommitted struct {
	OrderID        string    `json:"order_id"`
	OccurredAtTime time.Time `json:"occurred_at"`
}

func (e *OrderCommitted) EventName() string              { return EventOrderCommitted }
func (e *OrderCommitted) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *OrderCommitted) AggregateRef() (string, string) { return AggregateType, e.OrderID }

type OrderShipped struct {
	OrderID        string    `json:"order_id"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"tracking_number"`
	OccurredAtTime time.Time `json:"occurred_at"`
}

func (e *OrderShipped) EventName() string              { return EventOrderShipped }
func (e *OrderShipped) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *OrderShipped) AggregateRef() (string, string) { return AggregateType, e.OrderID }

type OrderPickupScheduled struct {
	OrderID        string        `json:"order_id"`
	PickupTime     time.Time     `json:"pickup_time"`
	LeadTime       time.Duration `json:"lead_time"`
	OccurredAtTime time.Time     `json:"occurred_at"`
}

func (e *OrderPickupScheduled) EventName() string              { return EventOrderPickupScheduled }
func (e *OrderPickupScheduled) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *OrderPickupScheduled) AggregateRef() (string, string) { return AggregateType, e.OrderID }

func init() {
	event.Register(EventOrderCreated, func(data json.RawMessage) (event.DomainEvent, error) {
		var e OrderCreated
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventOrderReserved, func(data json.RawMessage) (event.DomainEvent, error) {
		var e OrderReserved
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventOrderCommitted, func(data json.RawMessage) (event.DomainEvent, error) {
		var e OrderCommitted
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventOrderShipped, func(data json.RawMessage) (event.DomainEvent, error) {
		var e OrderShipped
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventOrderPickupScheduled, func(data json.RawMessage) (event.DomainEvent, error) {
		var e OrderPickupScheduled
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
}
