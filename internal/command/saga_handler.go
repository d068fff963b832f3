package command

import (
	"context"
	"fmt"
	"log"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/inventory"
	"github.com/levijcl/Wei-sub002/internal/domain/order"
	"github.com/levijcl/Wei-sub002/internal/domain/picking"
)

// SagaHandler reacts to picking-task lifecycle events after commit:
// completion consumes the order's reservations, cancelation releases
// them. Both paths are idempotent under redelivery because every mutating
// inventory command is keyed by its source reference.
type SagaHandler struct {
	orders    order.Repository
	inventory *inventory.Service
}

func NewSagaHandler(orders order.Repository, inventorySvc *inventory.Service) *SagaHandler {
	return &SagaHandler{orders: orders, inventory: inventorySvc}
}

func (s *SagaHandler) Name() string { return "inventory-saga" }

func (s *SagaHandler) Handle(ctx context.Context, env event.Envelope, ev event.DomainEvent) error {
	switch e := ev.(type) {
	case *picking.TaskCompleted:
		return s.consumeForOrder(ctx, e.OrderID, e.TaskID)
	case *picking.TaskCanceled:
		return s.releaseForOrder(ctx, e.OrderID, e.TaskID, e.Reason)
	}
	return nil
}

func (s *SagaHandler) consumeForOrder(ctx context.Context, orderID, taskID string) error {
	reservations, err := s.reservationsFor(ctx, orderID)
	if err != nil {
		return err
	}
	var firstErr error
	for sku, res := range reservations {
		result, err := s.inventory.Consume(ctx, inventory.ConsumeCommand{
			TransactionID:         res.ID,
			ExternalReservationID: res.ExternalReservationID,
			SourceReferenceID:     fmt.Sprintf("consume:%s:%s", orderID, sku),
			Source:                "PICKING_TASK",
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !result.Success {
			log.Printf("[Saga] consume for order %s (task %s, sku %s) failed: %s", orderID, taskID, sku, result.FailureReason)
			if result.Retryable && firstErr == nil {
				firstErr = fmt.Errorf("retryable consume failure: %s", result.FailureReason)
			}
		}
	}
	return firstErr
}

func (s *SagaHandler) releaseForOrder(ctx context.Context, orderID, taskID, reason string) error {
	reservations, err := s.reservationsFor(ctx, orderID)
	if err != nil {
		return err
	}
	var firstErr error
	for sku, res := range reservations {
		result, err := s.inventory.Release(ctx, inventory.ReleaseCommand{
			TransactionID:         res.ID,
			ExternalReservationID: res.ExternalReservationID,
			SourceReferenceID:     fmt.Sprintf("release:%s:%s", orderID, sku),
			Source:                "PICKING_TASK",
			Reason:                reason,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !result.Success {
			log.Printf("[Saga] release for order %s (task %s, sku %s) failed: %s", orderID, taskID, sku, result.FailureReason)
			if result.Retryable && firstErr == nil {
				firstErr = fmt.Errorf("retryable release failure: %s", result.FailureReason)
			}
		}
	}
	return firstErr
}

// reservationsFor returns the successful reserve transaction per SKU of
// the order's line items. Lines that never reserved are skipped.
func (s *SagaHandler) reservationsFor(ctx context.Context, orderID string) (map[string]*inventory.Transaction, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	reservations := make(map[string]*inventory.Transaction)
	for _, line := range o.Items {
		res, err := s.inventory.FindReservation(ctx, orderID, line.SKU)
		if err != nil {
			return nil, err
		}
		if res != nil {
			reservations[line.SKU] = res
		}
	}
	return reservations, nil
}
