package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type AdjustmentStatus string

const (
	AdjStatusPending AdjustmentStatus = "PENDING"
	AdjStatusApplied AdjustmentStatus = "APPLIED"
	AdjStatusFailed  AdjustmentStatus = "FAILED"
)

var (
	ErrAdjustmentNotFound = errors.New("inventory adjustment not found")
	ErrAdjustmentSettled  = errors.New("inventory adjustment already settled")
)

// DiscrepancyLog is one detected mismatch between the recorded quantity
// and an externally observed snapshot.
type DiscrepancyLog struct {
	SKU              string    `json:"sku"`
	WarehouseID      string    `json:"warehouse_id"`
	ExpectedQuantity int       `json:"expected_quantity"`
	ActualQuantity   int       `json:"actual_quantity"`
	Difference       int       `json:"difference"`
	DetectedAt       time.Time `json:"detected_at"`
}

// Adjustment is created by discrepancy detection over a snapshot batch and
// mutated exactly once, by apply-or-fail.
type Adjustment struct {
	ID                   string           `json:"id"`
	Status               AdjustmentStatus `json:"status"`
	AppliedTransactionID string           `json:"applied_transaction_id,omitempty"`
	Logs                 []DiscrepancyLog `json:"logs"`
	FailureReason        string           `json:"failure_reason,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	ProcessedAt          *time.Time       `json:"processed_at,omitempty"`
}

func NewAdjustment(logs []DiscrepancyLog) *Adjustment {
	return &Adjustment{
		ID:        uuid.New().String(),
		Status:    AdjStatusPending,
		Logs:      logs,
		CreatedAt: time.Now(),
	}
}

func (a *Adjustment) MarkApplied(transactionID string) error {
	if a.Status != AdjStatusPending {
		return ErrAdjustmentSettled
	}
	now := time.Now()
	a.Status = AdjStatusApplied
	a.AppliedTransactionID = transactionID
	a.ProcessedAt = &now
	return nil
}

func (a *Adjustment) MarkFailed(reason string) error {
	if a.Status != AdjStatusPending {
		return ErrAdjustmentSettled
	}
	now := time.Now()
	a.Status = AdjStatusFailed
	a.FailureReason = reason
	a.ProcessedAt = &now
	return nil
}

type AdjustmentRepository interface {
	Save(ctx context.Context, a *Adjustment) error
	FindByID(ctx context.Context, id string) (*Adjustment, error)
	FindPending(ctx context.Context) ([]*Adjustment, error)
}
