package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"roastreel/internal/api"
)

// daemonClient is a minimal HTTP client for the daemon's API.
type daemonClient struct {
	baseURL string
	client  *http.Client
}

func newDaemonClient(address string) *daemonClient {
	base := address
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &daemonClient{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *daemonClient) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.getJSON(ctx, "/api/status", &status); err != nil {
		return status, err
	}
	return status, nil
}

func (c *daemonClient) Sessions(ctx context.Context) ([]api.SessionView, error) {
	var payload api.SessionListResponse
	if err := c.getJSON(ctx, "/api/sessions", &payload); err != nil {
		return nil, err
	}
	return payload.Sessions, nil
}

func (c *daemonClient) SessionHistory(ctx context.Context, sessionID string) ([]api.SessionEventView, error) {
	var payload api.SessionHistoryResponse
	if err := c.getJSON(ctx, "/api/sessions/"+sessionID+"/history", &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

func (c *daemonClient) TestNotification(ctx context.Context) (api.NotifyTestResponse, error) {
	var payload api.NotifyTestResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/notify/test", &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func (c *daemonClient) getJSON(ctx context.Context, path string, target any) error {
	return c.doJSON(ctx, http.MethodGet, path, target)
}

func (c *daemonClient) doJSON(ctx context.Context, method, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
