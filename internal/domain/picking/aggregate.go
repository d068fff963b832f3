package picking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

const AggregateType = "PickingTask"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusSubmitted  Status = "SUBMITTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCanceled   Status = "CANCELED"
)

// CanSubmit reports whether the task may be submitted to the WES.
func (s Status) CanSubmit() bool { return s == StatusPending }

// CanUpdateFromWes reports whether an externally reported status may be
// applied. Only tasks the WES currently owns accept updates.
func (s Status) CanUpdateFromWes() bool {
	return s == StatusSubmitted || s == StatusInProgress
}

// CanCancel reports whether cancelation is still possible.
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusSubmitted || s == StatusInProgress
}

// IsTerminal reports whether no further transition is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

type Origin string

const (
	OriginOrchestratorSubmitted Origin = "ORCHESTRATOR_SUBMITTED"
	OriginWesDirect             Origin = "WES_DIRECT"
)

var (
	ErrTaskNotFound      = errors.New("picking task not found")
	ErrNoTaskItems       = errors.New("picking task must have at least one item")
	ErrInvalidTaskItem   = errors.New("task item quantity must be positive")
	ErrInvalidTransition = errors.New("invalid picking task transition")
	ErrUnknownWesStatus  = errors.New("unknown status reported by WES")
)

type TaskItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

type Task struct {
	ID            string     `json:"id"`
	WesTaskID     string     `json:"wes_task_id,omitempty"`
	OrderID       string     `json:"order_id"`
	Origin        Origin     `json:"origin"`
	Priority      int        `json:"priority"`
	Status        Status     `json:"status"`
	Items         []TaskItem `json:"items"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`

	events []event.DomainEvent
}

// NewForOrder creates a PENDING task owned by the orchestrator. The
// recorded creation event reuses the trigger's correlation id when one is
// supplied, else a fresh one is generated.
func NewForOrder(orderID string, items []TaskItem, priority int, trigger *event.TriggerContext) (*Task, error) {
	if len(items) == 0 {
		return nil, ErrNoTaskItems
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: sku %s", ErrInvalidTaskItem, item.SKU)
		}
	}

	now := time.Now()
	t := &Task{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Origin:    OriginOrchestratorSubmitted,
		Priority:  priority,
		Status:    StatusPending,
		Items:     items,
		CreatedAt: now,
	}

	if trigger == nil {
		tc := event.ManualTrigger("picking-task-create")
		trigger = &tc
	}
	t.recordEvent(&TaskCreated{
		TaskID:         t.ID,
		OrderID:        orderID,
		Priority:       priority,
		Items:          items,
		CorrelationID:  trigger.CorrelationID,
		OccurredAtTime: now,
		TriggerContext: trigger,
	})
	return t, nil
}

func (t *Task) transitionError(attempted string) error {
	return fmt.Errorf("%w: task %s cannot %s in status %s",
		ErrInvalidTransition, t.ID, attempted, t.Status)
}

// SubmitToWes records the WES-assigned task id and moves to SUBMITTED.
func (t *Task) SubmitToWes(wesTaskID string) error {
	if !t.Status.CanSubmit() {
		return t.transitionError("submit to WES")
	}
	now := time.Now()
	t.WesTaskID = wesTaskID
	t.Status = StatusSubmitted
	t.SubmittedAt = &now
	t.recordEvent(&TaskSubmitted{
		TaskID:         t.ID,
		WesTaskID:      wesTaskID,
		OrderID:        t.OrderID,
		OccurredAtTime: now,
	})
	return nil
}

// ApplyWesStatus applies an externally reported status as authoritative.
// Only SUBMITTED and IN_PROGRESS tasks accept updates.
func (t *Task) ApplyWesStatus(reported Status) error {
	if !t.Status.CanUpdateFromWes() {
		return t.transitionError(fmt.Sprintf("apply WES status %s", reported))
	}
	switch reported {
	case StatusInProgress:
		t.Status = StatusInProgress
	case StatusCompleted:
		return t.MarkCompleted()
	case StatusFailed:
		return t.MarkFailed("reported failed by WES")
	case StatusCanceled:
		return t.Cancel("canceled by WES")
	case StatusSubmitted:
		// no-op, WES has not started the task yet
	default:
		return fmt.Errorf("%w: %s", ErrUnknownWesStatus, reported)
	}
	return nil
}

// MarkCompleted is a direct terminal transition usable without a WES
// round-trip. The completion event is recorded exactly once.
func (t *Task) MarkCompleted() error {
	if t.Status.IsTerminal() || t.Status == StatusPending {
		return t.transitionError("complete")
	}
	now := time.Now()
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.recordEvent(&TaskCompleted{
		TaskID:         t.ID,
		WesTaskID:      t.WesTaskID,
		OrderID:        t.OrderID,
		OccurredAtTime: now,
	})
	return nil
}

// MarkFailed records a terminal failure with its reason.
func (t *Task) MarkFailed(reason string) error {
	if t.Status.IsTerminal() || t.Status == StatusPending {
		return t.transitionError("fail")
	}
	now := time.Now()
	t.Status = StatusFailed
	t.FailureReason = reason
	t.CompletedAt = &now
	t.recordEvent(&TaskFailed{
		TaskID:         t.ID,
		WesTaskID:      t.WesTaskID,
		OrderID:        t.OrderID,
		Reason:         reason,
		OccurredAtTime: now,
	})
	return nil
}

// Cancel aborts the task. Allowed from PENDING, SUBMITTED and IN_PROGRESS.
func (t *Task) Cancel(reason string) error {
	if !t.Status.CanCancel() {
		return t.transitionError("cancel")
	}
	now := time.Now()
	t.Status = StatusCanceled
	t.FailureReason = reason
	t.CanceledAt = &now
	t.recordEvent(&TaskCanceled{
		TaskID:         t.ID,
		WesTaskID:      t.WesTaskID,
		OrderID:        t.OrderID,
		Reason:         reason,
		OccurredAtTime: now,
	})
	return nil
}

// AdjustPriority changes the task priority. Allowed pre-terminal.
func (t *Task) AdjustPriority(newPriority int) error {
	if t.Status.IsTerminal() {
		return t.transitionError("adjust priority")
	}
	old := t.Priority
	t.Priority = newPriority
	t.recordEvent(&TaskPriorityAdjusted{
		TaskID:         t.ID,
		OldPriority:    old,
		NewPriority:    newPriority,
		OccurredAtTime: time.Now(),
	})
	return nil
}

func (t *Task) recordEvent(e event.DomainEvent) {
	t.events = append(t.events, e)
}

// DrainEvents returns and clears the buffer of not-yet-published events.
func (t *Task) DrainEvents() []event.DomainEvent {
	events := t.events
	t.events = nil
	return events
}

// Repository is the persistence boundary for picking tasks.
type Repository interface {
	Save(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	FindByOrderID(ctx context.Context, orderID string) ([]*Task, error)
	FindAwaitingWes(ctx context.Context) ([]*Task, error)
}
