// Package adapter implements the outbound ports against HTTP services.
// Each adapter translates transport-level failures into the port error
// taxonomy so the core never sees an HTTP status code.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string, timeout time.Duration) httpClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return httpClient{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

// doJSON issues the request and decodes the response body into out (when
// out is non-nil and the body non-empty). The caller interprets the
// returned status code; transport errors come back as err.
func (c httpClient) doJSON(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
