package observer

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/inventory"
	"github.com/levijcl/Wei-sub002/internal/outbox"
	"github.com/levijcl/Wei-sub002/internal/port"
)

// InventorySnapshotObserver sweeps the inventory system's stock snapshot,
// compares it against expected levels and applies any resulting adjustment
// in the same pass.
type InventorySnapshotObserver struct {
	inventory port.InventoryPort
	svc       *inventory.Service
	outbox    outbox.Repository
}

func NewInventorySnapshotObserver(inv port.InventoryPort, svc *inventory.Service, ob outbox.Repository) *InventorySnapshotObserver {
	return &InventorySnapshotObserver{inventory: inv, svc: svc, outbox: ob}
}

func (o *InventorySnapshotObserver) Name() string { return "inventory-snapshot-observer" }

func (o *InventorySnapshotObserver) Poll(ctx context.Context) error {
	snapshots, err := o.inventory.GetInventorySnapshot(ctx)
	if err != nil {
		return err
	}
	adjustmentID, err := o.svc.DetectDiscrepancies(ctx, snapshots)
	if err != nil {
		return err
	}
	if adjustmentID != "" {
		result, err := o.svc.ApplyAdjustment(ctx, adjustmentID)
		if err != nil {
			return err
		}
		if !result.Success {
			log.Printf("[InventoryObserver] adjustment %s not applied: %s", adjustmentID, result.FailureReason)
		}
	}

	trigger := event.ObserverTrigger(o.Name())
	env, err := event.Wrap(&InventorySnapshotObserved{
		SnapshotID:     uuid.New().String(),
		SKUCount:       len(snapshots),
		AdjustmentID:   adjustmentID,
		TriggerContext: trigger,
		OccurredAtTime: time.Now(),
	})
	if err != nil {
		return err
	}
	return o.outbox.Enqueue(ctx, env)
}
