// Package query is the read side of the operational API: current aggregate
// state joined with the audit trail that explains how it got there.
package query

import (
	"context"

	"github.com/levijcl/Wei-sub002/internal/audit"
	"github.com/levijcl/Wei-sub002/internal/domain/order"
	"github.com/levijcl/Wei-sub002/internal/domain/picking"
)

// OrderView is an order with its outstanding picking tasks and history.
type OrderView struct {
	Order   *order.Order    `json:"order"`
	Tasks   []*picking.Task `json:"tasks"`
	History []audit.Record  `json:"history"`
}

// TaskView is a picking task with its history.
type TaskView struct {
	Task    *picking.Task  `json:"task"`
	History []audit.Record `json:"history"`
}

type HistoryService struct {
	orders order.Repository
	tasks  picking.Repository
	audits audit.Store
}

func NewHistoryService(orders order.Repository, tasks picking.Repository, audits audit.Store) *HistoryService {
	return &HistoryService{orders: orders, tasks: tasks, audits: audits}
}

func (s *HistoryService) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	history, err := s.audits.ListByAggregate(ctx, order.AggregateType, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: o, Tasks: tasks, History: history}, nil
}

func (s *HistoryService) GetTask(ctx context.Context, taskID string) (*TaskView, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	history, err := s.audits.ListByAggregate(ctx, picking.AggregateType, taskID)
	if err != nil {
		return nil, err
	}
	return &TaskView{Task: task, History: history}, nil
}

// RecentActivity returns the newest audit records across all aggregates.
func (s *HistoryService) RecentActivity(ctx context.Context, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.audits.ListRecent(ctx, limit)
}

// AggregateHistory returns the trail for any aggregate type and id.
func (s *HistoryService) AggregateHistory(ctx context.Context, aggregateType, aggregateID string) ([]audit.Record, error) {
	return s.audits.ListByAggregate(ctx, aggregateType, aggregateID)
}
