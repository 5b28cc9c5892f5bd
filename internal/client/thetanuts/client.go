// Package thetanuts wraps the Thetanuts position indexer REST API.
package thetanuts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("indexer error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

// Host returns the base URL this client targets.
func (c *Client) Host() string {
	return c.host
}

// WithHost returns a copy of the client pointing at a different base URL.
// The sync loop uses this when the indexer URL is reconfigured at runtime.
func (c *Client) WithHost(host string) *Client {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" || host == c.host {
		return c
	}
	return &Client{host: host, httpClient: c.httpClient}
}

func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) fetchPositions(ctx context.Context, walletAddress, endpoint string) ([]Position, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	path := fmt.Sprintf("/user/%s/%s", url.PathEscape(walletAddress), endpoint)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	var items []Position
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return items, nil
}

// OpenPositions lists a wallet's currently open positions.
func (c *Client) OpenPositions(ctx context.Context, walletAddress string) ([]Position, error) {
	return c.fetchPositions(ctx, walletAddress, "positions")
}

// History lists a wallet's settled and closed positions.
func (c *Client) History(ctx context.Context, walletAddress string) ([]Position, error) {
	return c.fetchPositions(ctx, walletAddress, "history")
}

// TriggerUpdate asks the indexer to refresh its view of the chain. Callers
// treat failure as non-fatal; a sync can proceed on stale data.
func (c *Client) TriggerUpdate(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/update")
	return err
}
