// Package mocks provides recording fakes for the outbound ports, for use
// in unit tests.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/levijcl/Wei-sub002/internal/port"
)

// ============================================
// Inventory port
// ============================================

type ReservationCall struct {
	SKU         string
	WarehouseID string
	OrderID     string
	Quantity    int
}

type MockInventoryPort struct {
	mu sync.Mutex

	ReserveCalls  []ReservationCall
	ConsumeCalls  []string
	ReleaseCalls  []string
	IncreaseCalls []string
	AdjustCalls   []string

	ReserveErr  error
	ConsumeErr  error
	ReleaseErr  error
	IncreaseErr error
	AdjustErr   error
	SnapshotErr error

	Snapshots []port.StockSnapshot

	nextReservation int
}

func NewMockInventoryPort() *MockInventoryPort {
	return &MockInventoryPort{}
}

func (m *MockInventoryPort) CreateReservation(ctx context.Context, sku, warehouseID, orderID string, quantity int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReserveCalls = append(m.ReserveCalls, ReservationCall{SKU: sku, WarehouseID: warehouseID, OrderID: orderID, Quantity: quantity})
	if m.ReserveErr != nil {
		return "", m.ReserveErr
	}
	m.nextReservation++
	return fmt.Sprintf("res-%d", m.nextReservation), nil
}

func (m *MockInventoryPort) ConsumeReservation(ctx context.Context, reservationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConsumeCalls = append(m.ConsumeCalls, reservationID)
	return m.ConsumeErr
}

func (m *MockInventoryPort) ReleaseReservation(ctx context.Context, reservationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls = append(m.ReleaseCalls, reservationID)
	return m.ReleaseErr
}

func (m *MockInventoryPort) IncreaseInventory(ctx context.Context, sku, warehouseID string, quantity int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IncreaseCalls = append(m.IncreaseCalls, fmt.Sprintf("%s@%s+%d", sku, warehouseID, quantity))
	return m.IncreaseErr
}

func (m *MockInventoryPort) AdjustInventory(ctx context.Context, sku, warehouseID string, delta int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdjustCalls = append(m.AdjustCalls, fmt.Sprintf("%s@%s%+d", sku, warehouseID, delta))
	return m.AdjustErr
}

func (m *MockInventoryPort) GetInventorySnapshot(ctx context.Context) ([]port.StockSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	return m.Snapshots, nil
}

// ============================================
// WES port
// ============================================

type MockWesPort struct {
	mu sync.Mutex

	SubmitCalls   []port.SubmitTaskRequest
	StatusCalls   []string
	PriorityCalls []string
	CancelCalls   []string

	SubmitErr   error
	StatusErr   error
	PriorityErr error
	CancelErr   error

	// StatusByTask drives GetTaskStatus; absent ids report found=false.
	StatusByTask map[string]string

	nextTask int
}

func NewMockWesPort() *MockWesPort {
	return &MockWesPort{StatusByTask: make(map[string]string)}
}

func (m *MockWesPort) SubmitPickingTask(ctx context.Context, req port.SubmitTaskRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCalls = append(m.SubmitCalls, req)
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	m.nextTask++
	return fmt.Sprintf("wes-%d", m.nextTask), nil
}

func (m *MockWesPort) GetTaskStatus(ctx context.Context, wesTaskID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusCalls = append(m.StatusCalls, wesTaskID)
	if m.StatusErr != nil {
		return "", false, m.StatusErr
	}
	status, ok := m.StatusByTask[wesTaskID]
	return status, ok, nil
}

func (m *MockWesPort) UpdateTaskPriority(ctx context.Context, wesTaskID string, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PriorityCalls = append(m.PriorityCalls, fmt.Sprintf("%s:%d", wesTaskID, priority))
	return m.PriorityErr
}

func (m *MockWesPort) CancelTask(ctx context.Context, wesTaskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls = append(m.CancelCalls, wesTaskID)
	return m.CancelErr
}

// ============================================
// Order source port
// ============================================

type MockOrderSourcePort struct {
	mu sync.Mutex

	Orders    []port.ObservationResult
	FetchErr  error
	AckErr    error
	Processed []string
}

func NewMockOrderSourcePort() *MockOrderSourcePort {
	return &MockOrderSourcePort{}
}

func (m *MockOrderSourcePort) FetchNewOrders(ctx context.Context, endpoint string, since time.Time) ([]port.ObservationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	var out []port.ObservationResult
	for _, o := range m.Orders {
		if since.IsZero() || o.ObservedAt.After(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockOrderSourcePort) MarkOrderAsProcessed(ctx context.Context, endpoint, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return false, m.AckErr
	}
	m.Processed = append(m.Processed, orderID)
	return true, nil
}
