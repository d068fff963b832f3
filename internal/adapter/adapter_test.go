package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levijcl/Wei-sub002/internal/port"
)

// ============================================
// Inventory Adapter Tests
// ============================================

func TestInventoryAdapter_CreateReservation(t *testing.T) {
	var got reservationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/reservations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(reservationResponse{ReservationID: "res-77"})
	}))
	defer srv.Close()

	a := NewInventoryHTTPAdapter(srv.URL, time.Second)
	id, err := a.CreateReservation(context.Background(), "SKU-A", "W1", "order-1", 5)

	require.NoError(t, err)
	assert.Equal(t, "res-77", id)
	assert.Equal(t, reservationRequest{SKU: "SKU-A", WarehouseID: "W1", OrderID: "order-1", Quantity: 5}, got)
}

func TestInventoryAdapter_CreateReservation_Insufficient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	a := NewInventoryHTTPAdapter(srv.URL, time.Second)
	_, err := a.CreateReservation(context.Background(), "SKU-A", "W1", "order-1", 5)

	assert.ErrorIs(t, err, port.ErrInsufficientInventory)
}

func TestInventoryAdapter_CreateReservation_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewInventoryHTTPAdapter(srv.URL, time.Second)
	_, err := a.CreateReservation(context.Background(), "SKU-A", "W1", "order-1", 5)

	assert.ErrorIs(t, err, port.ErrInventorySystem)
}

func TestInventoryAdapter_ConsumeReservation(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewInventoryHTTPAdapter(srv.URL, time.Second)
	require.NoError(t, a.ConsumeReservation(context.Background(), "res-77"))
	assert.Equal(t, "/reservations/res-77/consume", path)
}

func TestInventoryAdapter_ReleaseUnknownReservation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewInventoryHTTPAdapter(srv.URL, time.Second)
	err := a.ReleaseReservation(context.Background(), "res-gone")

	assert.ErrorIs(t, err, port.ErrReservationNotFound)
}

func TestInventoryAdapter_GetInventorySnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/snapshot", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]port.StockSnapshot{
			{SKU: "SKU-A", WarehouseID: "W1", Quantity: 42},
		})
	}))
	defer srv.Close()

	a := NewInventoryHTTPAdapter(srv.URL, time.Second)
	snapshots, err := a.GetInventorySnapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 42, snapshots[0].Quantity)
}

// ============================================
// WES Adapter Tests
// ============================================

func TestWesAdapter_SubmitPickingTask(t *testing.T) {
	var got port.SubmitTaskRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/picking-tasks", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(submitTaskResponse{WesTaskID: "wes-9"})
	}))
	defer srv.Close()

	a := NewWesHTTPAdapter(srv.URL, time.Second)
	id, err := a.SubmitPickingTask(context.Background(), port.SubmitTaskRequest{
		TaskID:  "task-1",
		OrderID: "order-1",
		Items:   []port.SubmitTaskItem{{SKU: "SKU-A", Quantity: 2, Location: "W1"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "wes-9", id)
	assert.Equal(t, "task-1", got.TaskID)
}

func TestWesAdapter_SubmitWithoutTaskID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(submitTaskResponse{})
	}))
	defer srv.Close()

	a := NewWesHTTPAdapter(srv.URL, time.Second)
	_, err := a.SubmitPickingTask(context.Background(), port.SubmitTaskRequest{TaskID: "task-1"})

	assert.ErrorIs(t, err, port.ErrWesSystem)
}

func TestWesAdapter_GetTaskStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/picking-tasks/wes-9" {
			_ = json.NewEncoder(w).Encode(taskStatusResponse{Status: "IN_PROGRESS"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewWesHTTPAdapter(srv.URL, time.Second)

	status, found, err := a.GetTaskStatus(context.Background(), "wes-9")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "IN_PROGRESS", status)

	_, found, err = a.GetTaskStatus(context.Background(), "wes-gone")
	require.NoError(t, err, "a forgotten task is reported, not an error")
	assert.False(t, found)
}

func TestWesAdapter_CancelUnknownTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewWesHTTPAdapter(srv.URL, time.Second)
	err := a.CancelTask(context.Background(), "wes-gone")

	assert.ErrorIs(t, err, port.ErrWesTaskNotFound)
}

// ============================================
// Order Source Adapter Tests
// ============================================

func TestOrderSourceAdapter_FetchNewOrders(t *testing.T) {
	since := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shop/orders", r.URL.Path)
		assert.Equal(t, since.Format(time.RFC3339), r.URL.Query().Get("since"))
		_ = json.NewEncoder(w).Encode([]port.ObservationResult{
			{OrderID: "order-1", WarehouseID: "W1", Lines: []port.ObservedLine{{SKU: "SKU-A", Quantity: 1, Price: 100}}},
		})
	}))
	defer srv.Close()

	a := NewOrderSourceHTTPAdapter(srv.URL, time.Second)
	orders, err := a.FetchNewOrders(context.Background(), "/shop/orders", since)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "order-1", orders[0].OrderID)
}

func TestOrderSourceAdapter_MarkOrderAsProcessed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/shop/orders/order-1/processed" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewOrderSourceHTTPAdapter(srv.URL, time.Second)

	acked, err := a.MarkOrderAsProcessed(context.Background(), "/shop/orders", "order-1")
	require.NoError(t, err)
	assert.True(t, acked)

	acked, err = a.MarkOrderAsProcessed(context.Background(), "/shop/orders", "order-unknown")
	require.NoError(t, err, "an order the source no longer tracks is not an error")
	assert.False(t, acked)
}
