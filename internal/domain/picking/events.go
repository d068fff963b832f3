package picking

import (
	"encoding/json"
	"time"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

const (
	EventTaskCreated          = "PickingTaskCreatedEvent"
	EventTaskSubmitted        = "PickingTaskSubmittedEvent"
	EventTaskCompleted        = "PickingTaskCompletedEvent"
	EventTaskFailed           = "PickingTaskFailedEvent"
	EventTaskCanceled         = "PickingTaskCanceledEvent"
	EventTaskPriorityAdjusted = "PickingTaskPriorityAdjustedEvent"
)

type TaskCreated struct {
	TaskID         string                `json:"task_id"`
	OrderID        string                `json:"order_id"`
	Priority       int                   `json:"priority"`
	Items          []TaskItem            `json:"items"`
	CorrelationID  string                `json:"correlation_id"`
	OccurredAtTime time.Time             `json:"occurred_at"`
	TriggerContext *event.TriggerContext `json:"trigger,omitempty"`
}

func (e *TaskCreated) EventName() string              { return EventTaskCreated }
func (e *TaskCreated) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *TaskCreated) AggregateRef() (string, string) { return AggregateType, e.TaskID }
func (e *TaskCreated) Trigger() *event.TriggerContext { return e.TriggerContext }

type TaskSubmitted struct {
	TaskID         string    `json:"task_id"`
	WesTaskID      string    `json:"wes_task_id"`
	OrderID        string    `json:"order_id"`
	OccurredAtTime time.Time `json:"occurred_at"`
}

func (e *TaskSubmitted) EventName() string              { return EventTaskSubmitted }
func (e *TaskSubmitted) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *TaskSubmitted) AggregateRef() (string, string) { return AggregateType, e.TaskID }

type TaskCompleted struct {
	TaskID         string    `json:"task_id"`
	WesTaskID      string    `json:"wes_task_id"`
	OrderID        string    `json:"order_id"`
	OccurredAtTime time.Time `json:"occurred_at"`
}

func (e *TaskCompleted) EventName() string              { return EventTaskCompleted }
func (e *TaskCompleted) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *TaskCompleted) AggregateRef() (string, string) { return AggregateType, e.TaskID }

type TaskFailed struct {
	TaskID         string    `json:"task_id"`
	WesTaskID      string    `json:"wes_task_id"`
	OrderID        string    `json:"order_id"`
	Reason         string    `json:"reason"`
	OccurredAtTime time.Time `json:"occurred_at"`
}

func (e *TaskFailed) EventName() string              { return EventTaskFailed }
func (e *TaskFailed) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *TaskFailed) AggregateRef() (string, string) { return AggregateType, e.TaskID }

type TaskCanceled struct {
	TaskID         string    `json:"task_id"`
	WesTaskID      string    `json:"wes_task_id,omitempty"`
	OrderID        string    `json:"order_id"`
	Reason         string    `json:"reason"`
	OccurredAtTime time.Time `json:"occurred_at"`
}

func (e *TaskCanceled) EventName() string              { return EventTaskCanceled }
func (e *TaskCanceled) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *TaskCanceled) AggregateRef() (string, string) { return AggregateType, e.TaskID }

type TaskPriorityAdjusted struct {
	TaskID         string    `json:"task_id"`
	OldPriority    int       `json:"old_priority"`
	NewPriority    int       `json:"new_priority"`
	OccurredAtTime time.Time `json:"occurred_at"`
}

func (e *TaskPriorityAdjusted) EventName() string              { return EventTaskPriorityAdjusted }
func (e *TaskPriorityAdjusted) OccurredAt() time.Time          { return e.OccurredAtTime }
func (e *TaskPriorityAdjusted) AggregateRef() (string, string) { return AggregateType, e.TaskID }

func init() {
	event.Register(EventTaskCreated, func(data json.RawMessage) (event.DomainEvent, error) {
		var e TaskCreated
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventTaskSubmitted, func(data json.RawMessage) (event.DomainEvent, error) {
		var e TaskSubmitted
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventTaskCompleted, func(data json.RawMessage) (event.DomainEvent, error) {
		var e TaskCompleted
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventTaskFailed, func(data json.RawMessage) (event.DomainEvent, error) {
		var e TaskFailed
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventTaskCanceled, func(data json.RawMessage) (event.DomainEvent, error) {
		var e TaskCanceled
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
	event.Register(EventTaskPriorityAdjusted, func(data json.RawMessage) (event.DomainEvent, error) {
		var e TaskPriorityAdjusted
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	})
}
