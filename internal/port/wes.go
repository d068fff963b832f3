package port

import (
	"context"
	"errors"
)

// ErrWesSystem wraps transient WES failures.
var ErrWesSystem = errors.New("wes system error")

// ErrWesTaskNotFound signals the WES no longer knows the task id.
var ErrWesTaskNotFound = errors.New("wes task not found")

type SubmitTaskItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

type SubmitTaskRequest struct {
	TaskID   string           `json:"task_id"`
	OrderID  string           `json:"order_id"`
	Priority int              `json:"priority"`
	Items    []SubmitTaskItem `json:"items"`
}

type WesPort interface {
	SubmitPickingTask(ctx context.Context, req SubmitTaskRequest) (wesTaskID string, err error)
	// GetTaskStatus returns the WES-reported status; found is false when
	// the WES has no record of the task.
	GetTaskStatus(ctx context.Context, wesTaskID string) (status string, found bool, err error)
	UpdateTaskPriority(ctx context.Context, wesTaskID string, priority int) error
	CancelTask(ctx context.Context, wesTaskID string) error
}
