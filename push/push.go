// Package push delivers push notifications through the Expo push API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultEndpoint is the Expo push delivery endpoint.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

// A Notification is one push message addressed to a device token.
type Notification struct {
	To       string
	Title    string
	Body     string
	ThreadID string
}

// A Client sends notifications to the push delivery service. With an
// empty AccessToken every Send is a silent no-op, so an unconfigured
// deployment never fails on the push path.
type Client struct {
	AccessToken string
	Endpoint    string // defaults to DefaultEndpoint
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Send posts the notification. The delivery service's response body is
// logged but not otherwise validated.
func (c *Client) Send(ctx context.Context, n Notification) error {
	if c.AccessToken == "" {
		return nil
	}

	payload := map[string]any{
		"to":    n.To,
		"sound": "default",
		"body":  n.Body,
		"title": n.Title,
		"data": map[string]any{
			"threadId": n.ThreadID,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	cli := c.HTTPClient
	if cli == nil {
		cli = http.DefaultClient
	}

	resp, err := cli.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if c.Logger != nil {
		c.Logger.Info("Push delivery response", "status", resp.StatusCode, "body", string(respBody))
	}

	return nil
}
