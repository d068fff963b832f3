package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/levijcl/Wei-sub002/internal/port"
)

// OrderSourceHTTPAdapter implements port.OrderSourcePort against an
// upstream order feed. The endpoint parameter selects the feed path so a
// single adapter can serve several configured sources.
type OrderSourceHTTPAdapter struct {
	httpClient
}

func NewOrderSourceHTTPAdapter(baseURL string, timeout time.Duration) *OrderSourceHTTPAdapter {
	return &OrderSourceHTTPAdapter{httpClient: newHTTPClient(baseURL, timeout)}
}

func (a *OrderSourceHTTPAdapter) FetchNewOrders(ctx context.Context, endpoint string, since time.Time) ([]port.ObservationResult, error) {
	path := endpoint
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.Format(time.RFC3339))
	}
	var observed []port.ObservationResult
	status, err := a.doJSON(ctx, http.MethodGet, path, nil, &observed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrOrderSourceSystem, err)
	}
	if status >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: fetch returned %d", port.ErrOrderSourceSystem, status)
	}
	return observed, nil
}

func (a *OrderSourceHTTPAdapter) MarkOrderAsProcessed(ctx context.Context, endpoint, orderID string) (bool, error) {
	status, err := a.doJSON(ctx, http.MethodPost, endpoint+"/"+orderID+"/processed", nil, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", port.ErrOrderSourceSystem, err)
	}
	switch {
	case status < http.StatusMultipleChoices:
		return true, nil
	case status == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: ack returned %d", port.ErrOrderSourceSystem, status)
	}
}
