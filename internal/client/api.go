// Package client implements the merchant-side connection library: an API
// client for the partner backend and a session orchestrator that drives the
// browser-based authorization flow.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stagepay/partner-connect/internal/core/ports/driving"
)

// APIClient calls the partner backend on behalf of the merchant app.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates an API client for the given backend base URL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetAuthURL asks the backend to start a connection flow for the merchant.
func (c *APIClient) GetAuthURL(ctx context.Context, merchantID string) (*driving.IssueAuthURLResponse, error) {
	var resp driving.IssueAuthURLResponse
	if err := c.postJSON(ctx, "/getAuthUrl", driving.IssueAuthURLRequest{MerchantID: merchantID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConnectionStatus queries whether the merchant's account is connected.
func (c *APIClient) ConnectionStatus(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
	endpoint := c.baseURL + "/connectionStatus?userId=" + url.QueryEscape(merchantID)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("connectionStatus returned %d: %s", httpResp.StatusCode, string(body))
	}

	var resp driving.StatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func (c *APIClient) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
