package observer

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/levijcl/Wei-sub002/internal/command"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/picking"
	"github.com/levijcl/Wei-sub002/internal/outbox"
	"github.com/levijcl/Wei-sub002/internal/port"
)

// WesStatusObserver polls the WES for every task it currently owns and
// replays status changes into the local state machine. A task the WES has
// forgotten is marked failed so it stops being polled.
type WesStatusObserver struct {
	tasks    picking.Repository
	wes      port.WesPort
	commands *command.Handler
	outbox   outbox.Repository
}

func NewWesStatusObserver(tasks picking.Repository, wes port.WesPort, commands *command.Handler, ob outbox.Repository) *WesStatusObserver {
	return &WesStatusObserver{tasks: tasks, wes: wes, commands: commands, outbox: ob}
}

func (o *WesStatusObserver) Name() string { return "wes-status-observer" }

func (o *WesStatusObserver) Poll(ctx context.Context) error {
	tasks, err := o.tasks.FindAwaitingWes(ctx)
	if err != nil {
		return err
	}
	var firstErr error
	for _, task := range tasks {
		if err := o.pollTask(ctx, task); err != nil {
			log.Printf("[WesObserver] polling task %s (wes %s) failed: %v", task.ID, task.WesTaskID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (o *WesStatusObserver) pollTask(ctx context.Context, task *picking.Task) error {
	reported, found, err := o.wes.GetTaskStatus(ctx, task.WesTaskID)
	if err != nil && !errors.Is(err, port.ErrWesTaskNotFound) {
		return err
	}
	if !found || errors.Is(err, port.ErrWesTaskNotFound) {
		log.Printf("[WesObserver] task %s unknown to WES, marking failed", task.ID)
		return o.commands.ApplyWesTaskStatus(ctx, command.ApplyWesTaskStatus{
			TaskID: task.ID,
			Status: picking.StatusFailed,
		})
	}

	newStatus := picking.Status(reported)
	if newStatus == task.Status {
		return nil
	}
	if err := o.commands.ApplyWesTaskStatus(ctx, command.ApplyWesTaskStatus{
		TaskID: task.ID,
		Status: newStatus,
	}); err != nil {
		return err
	}

	env, err := event.Wrap(&WesTaskStatusUpdated{
		TaskID:         task.ID,
		WesTaskID:      task.WesTaskID,
		OldStatus:      string(task.Status),
		NewStatus:      string(newStatus),
		TriggerContext: event.ObserverTrigger(o.Name()),
		OccurredAtTime: time.Now(),
	})
	if err != nil {
		return err
	}
	return o.outbox.Enqueue(ctx, env)
}
