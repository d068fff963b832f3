package picking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

func newTestTask(t *testing.T) *Task {
	t.Helper()
	trigger := event.SchedulerTrigger("fulfillment-initiator")
	task, err := NewForOrder("order-1", []TaskItem{
		{SKU: "SKU-A", Quantity: 2, Location: "A-01"},
	}, 5, &trigger)
	require.NoError(t, err)
	return task
}

func submittedTask(t *testing.T) *Task {
	t.Helper()
	task := newTestTask(t)
	require.NoError(t, task.SubmitToWes("wes-1"))
	return task
}

// ============================================
// Creation Tests
// ============================================

func TestNewForOrder_Success(t *testing.T) {
	trigger := event.SchedulerTrigger("fulfillment-initiator")
	task, err := NewForOrder("order-1", []TaskItem{{SKU: "SKU-A", Quantity: 1}}, 3, &trigger)

	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "order-1", task.OrderID)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, OriginOrchestratorSubmitted, task.Origin)
	assert.Equal(t, 3, task.Priority)

	events := task.DrainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*TaskCreated)
	require.True(t, ok)
	assert.Equal(t, trigger.CorrelationID, created.CorrelationID)
}

func TestNewForOrder_NilTrigger_GeneratesCorrelation(t *testing.T) {
	task, err := NewForOrder("order-1", []TaskItem{{SKU: "SKU-A", Quantity: 1}}, 1, nil)

	require.NoError(t, err)
	events := task.DrainEvents()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].(*TaskCreated).CorrelationID)
}

func TestNewForOrder_NoItems(t *testing.T) {
	_, err := NewForOrder("order-1", nil, 1, nil)

	assert.ErrorIs(t, err, ErrNoTaskItems)
}

func TestNewForOrder_InvalidQuantity(t *testing.T) {
	_, err := NewForOrder("order-1", []TaskItem{{SKU: "SKU-A", Quantity: 0}}, 1, nil)

	assert.ErrorIs(t, err, ErrInvalidTaskItem)
}

// ============================================
// Submission Tests
// ============================================

func TestTask_SubmitToWes(t *testing.T) {
	task := newTestTask(t)

	require.NoError(t, task.SubmitToWes("wes-1"))

	assert.Equal(t, StatusSubmitted, task.Status)
	assert.Equal(t, "wes-1", task.WesTaskID)
	assert.NotNil(t, task.SubmittedAt)
}

func TestTask_SubmitTwice_Fails(t *testing.T) {
	task := submittedTask(t)

	err := task.SubmitToWes("wes-2")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "wes-1", task.WesTaskID)
}

// ============================================
// WES Status Application Tests
// ============================================

func TestTask_ApplyWesStatus_InProgress(t *testing.T) {
	task := submittedTask(t)

	require.NoError(t, task.ApplyWesStatus(StatusInProgress))

	assert.Equal(t, StatusInProgress, task.Status)
}

func TestTask_ApplyWesStatus_Completed(t *testing.T) {
	task := submittedTask(t)
	task.DrainEvents()

	require.NoError(t, task.ApplyWesStatus(StatusCompleted))

	assert.Equal(t, StatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)

	events := task.DrainEvents()
	require.Len(t, events, 1)
	completed := events[0].(*TaskCompleted)
	assert.Equal(t, "order-1", completed.OrderID)
	assert.Equal(t, "wes-1", completed.WesTaskID)
}

func TestTask_ApplyWesStatus_Failed(t *testing.T) {
	task := submittedTask(t)

	require.NoError(t, task.ApplyWesStatus(StatusFailed))

	assert.Equal(t, StatusFailed, task.Status)
	assert.NotEmpty(t, task.FailureReason)
}

func TestTask_ApplyWesStatus_Canceled(t *testing.T) {
	task := submittedTask(t)

	require.NoError(t, task.ApplyWesStatus(StatusCanceled))

	assert.Equal(t, StatusCanceled, task.Status)
	assert.NotNil(t, task.CanceledAt)
}

func TestTask_ApplyWesStatus_SubmittedNoOp(t *testing.T) {
	task := submittedTask(t)
	task.DrainEvents()

	require.NoError(t, task.ApplyWesStatus(StatusSubmitted))

	assert.Equal(t, StatusSubmitted, task.Status)
	assert.Empty(t, task.DrainEvents())
}

func TestTask_ApplyWesStatus_Unknown(t *testing.T) {
	task := submittedTask(t)

	err := task.ApplyWesStatus(Status("EXPLODED"))

	assert.ErrorIs(t, err, ErrUnknownWesStatus)
	assert.Equal(t, StatusSubmitted, task.Status)
}

func TestTask_ApplyWesStatus_OnPending_Fails(t *testing.T) {
	task := newTestTask(t)

	err := task.ApplyWesStatus(StatusCompleted)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPending, task.Status)
}

func TestTask_ApplyWesStatus_OnTerminal_Fails(t *testing.T) {
	task := submittedTask(t)
	require.NoError(t, task.MarkCompleted())
	task.DrainEvents()

	err := task.ApplyWesStatus(StatusInProgress)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Empty(t, task.DrainEvents(), "rejected update must not record events")
}

// ============================================
// Terminal Transition Tests
// ============================================

func TestTask_MarkCompleted_FromPending_Fails(t *testing.T) {
	task := newTestTask(t)

	err := task.MarkCompleted()

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTask_MarkCompleted_Twice_Fails(t *testing.T) {
	task := submittedTask(t)
	require.NoError(t, task.MarkCompleted())
	task.DrainEvents()

	err := task.MarkCompleted()

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, task.DrainEvents(), "completion event is recorded exactly once")
}

func TestTask_Cancel_FromPending(t *testing.T) {
	task := newTestTask(t)

	require.NoError(t, task.Cancel("operator request"))

	assert.Equal(t, StatusCanceled, task.Status)
	assert.Equal(t, "operator request", task.FailureReason)
}

func TestTask_Cancel_AfterCompleted_Fails(t *testing.T) {
	task := submittedTask(t)
	require.NoError(t, task.MarkCompleted())

	err := task.Cancel("too late")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, task.Status)
}

// ============================================
// Priority Tests
// ============================================

func TestTask_AdjustPriority(t *testing.T) {
	task := submittedTask(t)
	task.DrainEvents()

	require.NoError(t, task.AdjustPriority(9))

	assert.Equal(t, 9, task.Priority)
	events := task.DrainEvents()
	require.Len(t, events, 1)
	adjusted := events[0].(*TaskPriorityAdjusted)
	assert.Equal(t, 5, adjusted.OldPriority)
	assert.Equal(t, 9, adjusted.NewPriority)
}

func TestTask_AdjustPriority_Terminal_Fails(t *testing.T) {
	task := newTestTask(t)
	require.NoError(t, task.Cancel("gone"))

	err := task.AdjustPriority(1)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}
