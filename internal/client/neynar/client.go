// Package neynar posts batched Farcaster frame notifications.
package neynar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("neynar error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Configured reports whether an API key was provided. Sends are skipped
// silently when it is missing.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// WithHost returns a copy of the client pointing at a different base URL.
func (c *Client) WithHost(host string) *Client {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" || host == c.host {
		return c
	}
	return &Client{host: host, apiKey: c.apiKey, httpClient: c.httpClient}
}

type Notification struct {
	Title     string
	Body      string
	TargetURL string
}

type notificationPayload struct {
	Notification struct {
		Title     string `json:"title"`
		Body      string `json:"body"`
		TargetURL string `json:"target_url"`
		UUID      string `json:"uuid"`
	} `json:"notification"`
	TargetFids []int64 `json:"target_fids"`
}

// SendBatch pushes one notification to every fid in a single API call.
func (c *Client) SendBatch(ctx context.Context, n Notification, fids []int64) error {
	if len(fids) == 0 {
		return nil
	}
	payload := notificationPayload{TargetFids: fids}
	payload.Notification.Title = n.Title
	payload.Notification.Body = n.Body
	payload.Notification.TargetURL = n.TargetURL
	payload.Notification.UUID = uuid.NewString()

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/farcaster/frame/notifications/", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}
