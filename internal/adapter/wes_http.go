package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/levijcl/Wei-sub002/internal/port"
)

// WesHTTPAdapter implements port.WesPort against the warehouse execution
// system's REST API.
type WesHTTPAdapter struct {
	httpClient
}

func NewWesHTTPAdapter(baseURL string, timeout time.Duration) *WesHTTPAdapter {
	return &WesHTTPAdapter{httpClient: newHTTPClient(baseURL, timeout)}
}

type submitTaskResponse struct {
	WesTaskID string `json:"wes_task_id"`
}

func (a *WesHTTPAdapter) SubmitPickingTask(ctx context.Context, req port.SubmitTaskRequest) (string, error) {
	var resp submitTaskResponse
	status, err := a.doJSON(ctx, http.MethodPost, "/picking-tasks", req, &resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrWesSystem, err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", fmt.Errorf("%w: submit returned %d", port.ErrWesSystem, status)
	}
	if resp.WesTaskID == "" {
		return "", fmt.Errorf("%w: submit returned no task id", port.ErrWesSystem)
	}
	return resp.WesTaskID, nil
}

type taskStatusResponse struct {
	Status string `json:"status"`
}

func (a *WesHTTPAdapter) GetTaskStatus(ctx context.Context, wesTaskID string) (string, bool, error) {
	var resp taskStatusResponse
	status, err := a.doJSON(ctx, http.MethodGet, "/picking-tasks/"+wesTaskID, nil, &resp)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", port.ErrWesSystem, err)
	}
	switch {
	case status == http.StatusOK:
		return resp.Status, true, nil
	case status == http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("%w: status query returned %d", port.ErrWesSystem, status)
	}
}

type priorityRequest struct {
	Priority int `json:"priority"`
}

func (a *WesHTTPAdapter) UpdateTaskPriority(ctx context.Context, wesTaskID string, priority int) error {
	status, err := a.doJSON(ctx, http.MethodPut, "/picking-tasks/"+wesTaskID+"/priority", priorityRequest{Priority: priority}, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", port.ErrWesSystem, err)
	}
	switch {
	case status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusNotFound:
		return port.ErrWesTaskNotFound
	default:
		return fmt.Errorf("%w: priority update returned %d", port.ErrWesSystem, status)
	}
}

func (a *WesHTTPAdapter) CancelTask(ctx context.Context, wesTaskID string) error {
	status, err := a.doJSON(ctx, http.MethodPost, "/picking-tasks/"+wesTaskID+"/cancel", nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", port.ErrWesSystem, err)
	}
	switch {
	case status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusNotFound:
		return port.ErrWesTaskNotFound
	default:
		return fmt.Errorf("%w: cancel returned %d", port.ErrWesSystem, status)
	}
}
