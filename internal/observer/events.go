package observer

import (
	"encoding/json"
	"time"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

const AggregateType = "Observation"

const (
	EventNewOrderObserved          = "NewOrderObservedEvent"
	EventInventorySnapshotObserved = "InventorySnapshotObservedEvent"
	EventWesTaskStatusUpdated      = "WesTaskStatusUpdatedEvent"
)

// NewOrderObserved is emitted when an external order has been pulled in
// and handed to intake, whether or not the reservation succeeded.
type NewOrderObserved struct {
	OrderID        string               `json:"order_id"`
	WarehouseID    string               `json:"warehouse_id"`
	Reserved       bool                 `json:"reserved"`
	TriggerContext event.TriggerContext `json:"trigger_context"`
	OccurredAtTime time.Time            `json:"occurred_at"`
}

func (e *NewOrderObserved) EventName() string     { return EventNewOrderObserved }
func (e *NewOrderObserved) OccurredAt() time.Time { return e.OccurredAtTime }
func (e *NewOrderObserved) AggregateRef() (string, string) {
	return AggregateType, e.OrderID
}
func (e *NewOrderObserved) Trigger() *event.TriggerContext { return &e.TriggerContext }

// InventorySnapshotObserved is emitted after a snapshot sweep. AdjustmentID
// is empty when the snapshot matched expectations.
type InventorySnapshotObserved struct {
	SnapshotID     string               `json:"snapshot_id"`
	SKUCount       int                  `json:"sku_count"`
	AdjustmentID   string               `json:"adjustment_id,omitempty"`
	TriggerContext event.TriggerContext `json:"trigger_context"`
	OccurredAtTime time.Time            `json:"occurred_at"`
}

func (e *InventorySnapshotObserved) EventName() string     { return EventInventorySnapshotObserved }
func (e *InventorySnapshotObserved) OccurredAt() time.Time { return e.OccurredAtTime }
func (e *InventorySnapshotObserved) AggregateRef() (string, string) {
	return AggregateType, e.SnapshotID
}
func (e *InventorySnapshotObserved) Trigger() *event.TriggerContext { return &e.TriggerContext }

// WesTaskStatusUpdated is emitted when polling found the WES reporting a
// status different from the one stored locally.
type WesTaskStatusUpdated struct {
	TaskID         string               `json:"task_id"`
	WesTaskID      string               `json:"wes_task_id"`
	OldStatus      string               `json:"old_status"`
	NewStatus      string               `json:"new_status"`
	TriggerContext event.TriggerContext `json:"trigger_context"`
	OccurredAtTime time.Time            `json:"occurred_at"`
}

func (e *WesTaskStatusUpdated) EventName() string     { return EventWesTaskStatusUpdated }
func (e *WesTaskStatusUpdated) OccurredAt() time.Time { return e.OccurredAtTime }
func (e *WesTaskStatusUpdated) AggregateRef() (string, string) {
	return AggregateType, e.TaskID
}
func (e *WesTaskStatusUpdated) Trigger() *event.TriggerContext { return &e.TriggerContext }

func init() {
	event.Register(EventNewOrderObserved, func(data json.RawMessage) (event.DomainEvent, error) {
		var e NewOrderObserved
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventInventorySnapshotObserved, func(data json.RawMessage) (event.DomainEvent, error) {
		var e InventorySnapshotObserved
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventWesTaskStatusUpdated, func(data json.RawMessage) (event.DomainEvent, error) {
		var e WesTaskStatusUpdated
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
}
