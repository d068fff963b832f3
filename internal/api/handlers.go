package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/levijcl/Wei-sub002/internal/api/middleware"
	"github.com/levijcl/Wei-sub002/internal/command"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/order"
	"github.com/levijcl/Wei-sub002/internal/domain/picking"
	"github.com/levijcl/Wei-sub002/internal/query"
)

// Handlers exposes the operational API: state and audit reads for every
// authenticated operator, manual command triggers for the operator role.
type Handlers struct {
	commands *command.Handler
	history  *query.HistoryService
}

func NewHandlers(commands *command.Handler, history *query.HistoryService) *Handlers {
	return &Handlers{commands: commands, history: history}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// mapDomainError picks the HTTP status for a command failure.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, picking.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, picking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, order.ErrNoLineItems), errors.Is(err, order.ErrInvalidLineItem),
		errors.Is(err, picking.ErrNoTaskItems), errors.Is(err, picking.ErrInvalidTaskItem):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func manualTrigger(r *http.Request) event.TriggerContext {
	by := middleware.GetOperatorName(r.Context())
	if by == "" {
		by = "unknown"
	}
	return event.ManualTrigger(by)
}

// CreateOrder handles POST /orders
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.commands.CreateOrder(r.Context(), cmd, manualTrigger(r))
	if err != nil {
		log.Printf("[API] create order %s: %v", cmd.OrderID, err)
		respondError(w, err.Error(), mapDomainError(err))
		return
	}
	if result.Duplicate {
		respondJSON(w, http.StatusOK, result)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// GetOrder handles GET /orders/{id}
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimPrefix(r.URL.Path, "/orders/")
	if orderID == "" {
		respondError(w, "order id required", http.StatusBadRequest)
		return
	}

	view, err := h.history.GetOrder(r.Context(), orderID)
	if err != nil {
		respondError(w, err.Error(), mapDomainError(err))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// InitiateFulfillment handles POST /orders/{id}/fulfill
func (h *Handlers) InitiateFulfillment(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/orders/"), "/fulfill")

	var body struct {
		Priority int `json:"priority"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	task, err := h.commands.InitiateFulfillment(r.Context(), command.InitiateFulfillment{
		OrderID:  orderID,
		Priority: body.Priority,
	}, manualTrigger(r))
	if err != nil {
		log.Printf("[API] initiate fulfillment for %s: %v", orderID, err)
		respondError(w, err.Error(), mapDomainError(err))
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// ShipOrder handles POST /orders/{id}/ship
func (h *Handlers) ShipOrder(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/orders/"), "/ship")

	var body struct {
		Carrier        string `json:"carrier"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.commands.MarkOrderShipped(r.Context(), command.MarkOrderShipped{
		OrderID:        orderID,
		Carrier:        body.Carrier,
		TrackingNumber: body.TrackingNumber,
	}); err != nil {
		respondError(w, err.Error(), mapDomainError(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": string(order.StatusShipped)})
}

// GetTask handles GET /picking-tasks/{id}
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimPrefix(r.URL.Path, "/picking-tasks/")
	if taskID == "" {
		respondError(w, "task id required", http.StatusBadRequest)
		return
	}

	view, err := h.history.GetTask(r.Context(), taskID)
	if err != nil {
		respondError(w, err.Error(), mapDomainError(err))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// CancelTask handles POST /picking-tasks/{id}/cancel
func (h *Handlers) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/picking-tasks/"), "/cancel")

	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if body.Reason == "" {
		body.Reason = "canceled by " + middleware.GetOperatorName(r.Context())
	}

	if err := h.commands.CancelPickingTask(r.Context(), command.CancelPickingTask{
		TaskID: taskID,
		Reason: body.Reason,
	}); err != nil {
		log.Printf("[API] cancel task %s: %v", taskID, err)
		respondError(w, err.Error(), mapDomainError(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"task_id": taskID, "status": string(picking.StatusCanceled)})
}

// AdjustTaskPriority handles PUT /picking-tasks/{id}/priority
func (h *Handlers) AdjustTaskPriority(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/picking-tasks/"), "/priority")

	var body struct {
		Priority int `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.commands.AdjustTaskPriority(r.Context(), command.AdjustTaskPriority{
		TaskID:   taskID,
		Priority: body.Priority,
	}); err != nil {
		respondError(w, err.Error(), mapDomainError(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"task_id": taskID, "priority": body.Priority})
}

// GetAuditTrail handles GET /audit/{aggregateType}/{aggregateID}
func (h *Handlers) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/audit/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		respondError(w, "aggregate type and id required", http.StatusBadRequest)
		return
	}

	records, err := h.history.AggregateHistory(r.Context(), parts[0], parts[1])
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetRecentActivity handles GET /audit?limit=n
func (h *Handlers) GetRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := h.history.RecentActivity(r.Context(), limit)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, records)
}
