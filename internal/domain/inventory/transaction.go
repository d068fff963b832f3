package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TypeReserve  TransactionType = "RESERVE"
	TypeConsume  TransactionType = "CONSUME"
	TypeRelease  TransactionType = "RELEASE"
	TypeIncrease TransactionType = "INCREASE"
	TypeAdjust   TransactionType = "ADJUST"
)

type TransactionStatus string

const (
	TxnStatusPending TransactionStatus = "PENDING"
	TxnStatusSuccess TransactionStatus = "SUCCESS"
	TxnStatusFailed  TransactionStatus = "FAILED"
)

var (
	ErrTransactionNotFound = errors.New("inventory transaction not found")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
)

type TransactionLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Transaction records one mutating inventory command and its outcome. The
// SourceReferenceID ties it back to the triggering order or task and is the
// idempotency key under at-least-once delivery.
type Transaction struct {
	ID                    string            `json:"id"`
	Type                  TransactionType   `json:"type"`
	Status                TransactionStatus `json:"status"`
	Source                string            `json:"source"`
	SourceReferenceID     string            `json:"source_reference_id"`
	WarehouseLocation     string            `json:"warehouse_location"`
	ExternalReservationID string            `json:"external_reservation_id,omitempty"`
	Lines                 []TransactionLine `json:"lines"`
	RelatedTransactionID  string            `json:"related_transaction_id,omitempty"`
	FailureReason         string            `json:"failure_reason,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
}

func NewTransaction(txnType TransactionType, source, sourceReferenceID, warehouseLocation string, lines []TransactionLine) *Transaction {
	return &Transaction{
		ID:                uuid.New().String(),
		Type:              txnType,
		Status:            TxnStatusPending,
		Source:            source,
		SourceReferenceID: sourceReferenceID,
		WarehouseLocation: warehouseLocation,
		Lines:             lines,
		CreatedAt:         time.Now(),
	}
}

func (t *Transaction) Succeed(externalReservationID string) {
	now := time.Now()
	t.Status = TxnStatusSuccess
	if externalReservationID != "" {
		t.ExternalReservationID = externalReservationID
	}
	t.CompletedAt = &now
}

func (t *Transaction) Fail(reason string) {
	now := time.Now()
	t.Status = TxnStatusFailed
	t.FailureReason = reason
	t.CompletedAt = &now
}

// TransactionRepository is the persistence boundary for inventory
// transactions. FindBySourceReference supports the idempotency lookup.
type TransactionRepository interface {
	Save(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, id string) (*Transaction, error)
	FindBySourceReference(ctx context.Context, sourceReferenceID string, txnType TransactionType) (*Transaction, error)
}

// StockRecordRepository tracks the recorded on-hand quantity per
// (SKU, warehouse) — the baseline discrepancy detection compares against.
type StockRecordRepository interface {
	Get(ctx context.Context, sku, warehouseID string) (quantity int, found bool, err error)
	Set(ctx context.Context, sku, warehouseID string, quantity int) error
	AdjustBy(ctx context.Context, sku, warehouseID string, delta int) error
}
