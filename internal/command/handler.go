package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/inventory"
	"github.com/levijcl/Wei-sub002/internal/domain/order"
	"github.com/levijcl/Wei-sub002/internal/domain/picking"
	"github.com/levijcl/Wei-sub002/internal/infrastructure/store"
	"github.com/levijcl/Wei-sub002/internal/outbox"
	"github.com/levijcl/Wei-sub002/internal/port"
)

// Handler is the application-service layer: it loads aggregates, drives
// their state machines, talks to the WES port, and persists each state
// change together with its drained events in one transaction. Publication
// happens later, from the outbox, so a rollback can never leak phantom
// events.
type Handler struct {
	orders    order.Repository
	tasks     picking.Repository
	inventory *inventory.Service
	wes       port.WesPort
	tx        store.TxRunner
	outbox    outbox.Repository
}

func NewHandler(
	orders order.Repository,
	tasks picking.Repository,
	inventorySvc *inventory.Service,
	wes port.WesPort,
	tx store.TxRunner,
	ob outbox.Repository,
) *Handler {
	return &Handler{
		orders:    orders,
		tasks:     tasks,
		inventory: inventorySvc,
		wes:       wes,
		tx:        tx,
		outbox:    ob,
	}
}

// CreateOrder creates the order record and reserves inventory per line.
// A line rejected for insufficient stock fails that line only; the order
// is persisted either way, transitioning to RESERVED only when every line
// reserved.
func (h *Handler) CreateOrder(ctx context.Context, cmd CreateOrder, trigger event.TriggerContext) (*CreateOrderResult, error) {
	existing, err := h.orders.FindByID(ctx, cmd.OrderID)
	if err != nil && !errors.Is(err, order.ErrOrderNotFound) {
		return nil, err
	}
	if existing != nil {
		// The source re-offered an order we already took in, typically
		// because a previous ack never reached it. Nothing to redo.
		return &CreateOrderResult{Order: existing, Reserved: existing.Reservation != nil, Duplicate: true}, nil
	}

	o, err := order.New(cmd.OrderID, cmd.Items, trigger)
	if err != nil {
		return nil, err
	}
	if !cmd.ScheduledPickupTime.IsZero() {
		if err := o.SchedulePickup(cmd.ScheduledPickupTime, cmd.FulfillmentLeadTime); err != nil {
			return nil, err
		}
	}

	result := &CreateOrderResult{Order: o}
	reservedQty := 0
	for _, item := range cmd.Items {
		res, err := h.inventory.Reserve(ctx, inventory.ReserveCommand{
			OrderID:     o.ID,
			SKU:         item.SKU,
			WarehouseID: cmd.WarehouseID,
			Quantity:    item.Quantity,
			Source:      "ORDER",
		})
		if err != nil {
			return nil, err
		}
		if !res.Success {
			log.Printf("[Orchestrator] order %s: reservation for %s failed: %s", o.ID, item.SKU, res.FailureReason)
			result.LineFailures = append(result.LineFailures, fmt.Sprintf("%s: %s", item.SKU, res.FailureReason))
			continue
		}
		reservedQty += item.Quantity
	}

	if len(result.LineFailures) == 0 {
		if err := o.ReserveInventory(order.ReservationInfo{
			WarehouseID: cmd.WarehouseID,
			ReservedQty: reservedQty,
			Status:      "RESERVED",
		}); err != nil {
			return nil, err
		}
		result.Reserved = true
	}

	if err := h.saveOrder(ctx, o); err != nil {
		return nil, err
	}
	return result, nil
}

// InitiateFulfillment submits a picking task for the order to the WES and
// commits the order. Scheduler sweeps retry orders, so the command is
// idempotent: a PENDING task left by a prior sweep is resubmitted, and a
// task already with the WES is returned as-is.
func (h *Handler) InitiateFulfillment(ctx context.Context, cmd InitiateFulfillment, trigger event.TriggerContext) (*picking.Task, error) {
	o, err := h.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusReserved {
		return nil, fmt.Errorf("%w: order %s cannot start fulfillment in status %s",
			order.ErrInvalidTransition, o.ID, o.Status)
	}

	task, err := h.openTaskFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if task != nil && task.Status != picking.StatusPending {
		return task, nil
	}
	if task == nil {
		location := ""
		if o.Reservation != nil {
			location = o.Reservation.WarehouseID
		}
		items := make([]picking.TaskItem, 0, len(o.Items))
		for _, line := range o.Items {
			items = append(items, picking.TaskItem{SKU: line.SKU, Quantity: line.Quantity, Location: location})
		}
		task, err = picking.NewForOrder(o.ID, items, cmd.Priority, &trigger)
		if err != nil {
			return nil, err
		}
	}

	wesTaskID, submitErr := h.wes.SubmitPickingTask(ctx, port.SubmitTaskRequest{
		TaskID:   task.ID,
		OrderID:  o.ID,
		Priority: task.Priority,
		Items:    toSubmitItems(task.Items),
	})
	if submitErr != nil {
		// Task stays PENDING; persist it so the next cycle retries this
		// task instead of minting another.
		if err := h.saveTask(ctx, task); err != nil {
			return nil, err
		}
		return task, fmt.Errorf("failed to submit task %s to WES: %w", task.ID, submitErr)
	}

	if err := task.SubmitToWes(wesTaskID); err != nil {
		return nil, err
	}
	if err := o.Commit(); err != nil {
		return nil, err
	}

	taskEnvs, err := event.WrapAll(task.DrainEvents())
	if err != nil {
		return nil, err
	}
	orderEnvs, err := event.WrapAll(o.DrainEvents())
	if err != nil {
		return nil, err
	}
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.tasks.Save(ctx, task); err != nil {
			return err
		}
		if err := h.orders.Save(ctx, o); err != nil {
			return err
		}
		return h.outbox.Enqueue(ctx, append(taskEnvs, orderEnvs...)...)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ApplyWesTaskStatus applies an externally reported task status.
func (h *Handler) ApplyWesTaskStatus(ctx context.Context, cmd ApplyWesTaskStatus) error {
	task, err := h.tasks.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if err := task.ApplyWesStatus(cmd.Status); err != nil {
		return err
	}
	return h.saveTask(ctx, task)
}

// CancelPickingTask cancels the task in the WES (when it has been
// submitted) and locally. Reservation release happens downstream, driven
// by the canceled event.
func (h *Handler) CancelPickingTask(ctx context.Context, cmd CancelPickingTask) error {
	task, err := h.tasks.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if task.WesTaskID != "" && !task.Status.IsTerminal() {
		if err := h.wes.CancelTask(ctx, task.WesTaskID); err != nil {
			return fmt.Errorf("failed to cancel WES task %s: %w", task.WesTaskID, err)
		}
	}
	if err := task.Cancel(cmd.Reason); err != nil {
		return err
	}
	return h.saveTask(ctx, task)
}

// AdjustTaskPriority propagates a new priority to the WES and the task.
func (h *Handler) AdjustTaskPriority(ctx context.Context, cmd AdjustTaskPriority) error {
	task, err := h.tasks.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if task.WesTaskID != "" && task.Status.CanUpdateFromWes() {
		if err := h.wes.UpdateTaskPriority(ctx, task.WesTaskID, cmd.Priority); err != nil {
			return fmt.Errorf("failed to update WES priority for %s: %w", task.WesTaskID, err)
		}
	}
	if err := task.AdjustPriority(cmd.Priority); err != nil {
		return err
	}
	return h.saveTask(ctx, task)
}

// MarkOrderShipped records shipment on a committed order.
func (h *Handler) MarkOrderShipped(ctx context.Context, cmd MarkOrderShipped) error {
	o, err := h.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if err := o.MarkShipped(order.ShipmentInfo{Carrier: cmd.Carrier, TrackingNumber: cmd.TrackingNumber}); err != nil {
		return err
	}
	return h.saveOrder(ctx, o)
}

// openTaskFor returns the order's existing non-terminal picking task, if
// any.
func (h *Handler) openTaskFor(ctx context.Context, orderID string) (*picking.Task, error) {
	tasks, err := h.tasks.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if !t.Status.IsTerminal() {
			return t, nil
		}
	}
	return nil, nil
}

func (h *Handler) saveOrder(ctx context.Context, o *order.Order) error {
	envs, err := event.WrapAll(o.DrainEvents())
	if err != nil {
		return err
	}
	return h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.orders.Save(ctx, o); err != nil {
			return err
		}
		return h.outbox.Enqueue(ctx, envs...)
	})
}

func (h *Handler) saveTask(ctx context.Context, t *picking.Task) error {
	envs, err := event.WrapAll(t.DrainEvents())
	if err != nil {
		return err
	}
	return h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.tasks.Save(ctx, t); err != nil {
			return err
		}
		return h.outbox.Enqueue(ctx, envs...)
	})
}

func toSubmitItems(items []picking.TaskItem) []port.SubmitTaskItem {
	out := make([]port.SubmitTaskItem, 0, len(items))
	for _, item := range items {
		out = append(out, port.SubmitTaskItem{SKU: item.SKU, Quantity: item.Quantity, Location: item.Location})
	}
	return out
}
