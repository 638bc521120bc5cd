// Package provider implements the OAuth2 client for the payment platform.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stagepay/partner-connect/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ProviderClient = (*Client)(nil)

// DefaultScopes is the fixed scope set the partner requests:
// read access to payments, the organization and its profiles.
var DefaultScopes = []string{"payments.read", "organizations.read", "profiles.read"}

// Config holds the OAuth app credentials and endpoints for the platform.
type Config struct {
	// ClientID is the OAuth application client ID.
	ClientID string

	// ClientSecret is the OAuth application client secret.
	// Only ever sent to the token endpoint, server-side.
	ClientSecret string

	// AuthURL is the platform's authorization endpoint.
	AuthURL string

	// TokenURL is the platform's token exchange endpoint.
	TokenURL string

	// Scopes overrides DefaultScopes when non-empty.
	Scopes []string
}

// Client talks OAuth2 to the payment platform.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new provider client.
func NewClient(cfg Config) *Client {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// BuildAuthURL constructs the platform authorization URL.
func (c *Client) BuildAuthURL(redirectURI, state string, scopes []string) string {
	params := url.Values{
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {redirectURI},
		"state":         {state},
		"scope":         {strings.Join(scopes, " ")},
		"response_type": {"code"},
	}
	return c.cfg.AuthURL + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens.
// redirectURI must exactly match the one used at authorization.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*driven.OAuthToken, error) {
	params := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	return c.tokenRequest(ctx, params)
}

// RefreshToken obtains fresh tokens using a refresh token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	params := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.tokenRequest(ctx, params)
}

// DefaultScopes returns the fixed scope set the partner requests.
func (c *Client) DefaultScopes() []string {
	return c.cfg.Scopes
}

// tokenRequest posts a grant to the token endpoint and decodes the response.
func (c *Client) tokenRequest(ctx context.Context, params url.Values) (*driven.OAuthToken, error) {
	params.Set("client_id", c.cfg.ClientID)
	params.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.TokenURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		Scope        string `json:"scope"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		Error        string `json:"error"`
		ErrorDesc    string `json:"error_description"`
	}

	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if tokenResp.Error != "" {
		return nil, fmt.Errorf("oauth error: %s - %s", tokenResp.Error, tokenResp.ErrorDesc)
	}

	return &driven.OAuthToken{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
		Scope:        tokenResp.Scope,
		ExpiresIn:    tokenResp.ExpiresIn,
	}, nil
}
