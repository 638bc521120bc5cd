package driving

import (
	"context"
)

// ConnectService drives the OAuth connection handshake with the payment
// platform: issuing authorization URLs, handling the provider callback,
// answering status queries and refreshing or removing connections.
type ConnectService interface {
	// IssueAuthURL mints a state token, persists it and returns the
	// provider authorization URL. The URL is never returned unless the
	// state was durably stored, otherwise the callback could not be
	// validated.
	IssueAuthURL(ctx context.Context, req IssueAuthURLRequest) (*IssueAuthURLResponse, error)

	// Callback handles the provider redirect. It validates and consumes the
	// state, exchanges the code for tokens and merge-upserts the
	// connection. Failures are terminal for the attempt; the server never
	// retries on its own — retry is a user-initiated restart of the flow.
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResponse, error)

	// Status reports whether the merchant has a stored connection.
	// Pure read. A storage failure is an error, never "not connected".
	Status(ctx context.Context, merchantID string) (*StatusResponse, error)

	// Refresh exchanges the stored refresh token for fresh tokens and
	// merge-upserts the result. Explicitly caller-triggered; there is no
	// background refresher.
	Refresh(ctx context.Context, merchantID string) (*StatusResponse, error)

	// Disconnect removes the merchant's stored connection.
	Disconnect(ctx context.Context, merchantID string) error
}

// IssueAuthURLRequest asks for an authorization URL for a merchant.
// @Description Request to start the OAuth connection flow
type IssueAuthURLRequest struct {
	// MerchantID identifies the merchant starting the flow.
	MerchantID string `json:"userId" example:"user1"`
}

// IssueAuthURLResponse carries the provider authorization URL.
// @Description Response containing the provider authorization URL
type IssueAuthURLResponse struct {
	Success bool `json:"success" example:"true"`

	// AuthorizeURL is the URL to open in the browser for authorization.
	AuthorizeURL string `json:"authorizeUrl" example:"https://auth.payments.example/oauth2/authorize?client_id=..."`

	// State is the CSRF token that will be returned in the callback.
	State string `json:"state" example:"3f7a..."`

	// ExpiresAt is when the authorization state expires.
	ExpiresAt string `json:"expires_at" example:"2026-01-15T10:10:00Z"`
}

// CallbackRequest represents the OAuth callback from the provider.
// @Description OAuth callback parameters from the provider redirect
type CallbackRequest struct {
	// Code is the authorization code from the provider.
	Code string `json:"code" example:"abc123"`

	// State is the CSRF token returned by the provider.
	State string `json:"state" example:"3f7a..."`

	// Error is set if the provider returned an error.
	Error string `json:"error,omitempty" example:"access_denied"`

	// ErrorDescription provides details about the error.
	ErrorDescription string `json:"error_description,omitempty" example:"The user denied access"`
}

// CallbackResponse contains the result of a successful callback.
type CallbackResponse struct {
	// MerchantID is the merchant resolved from the stored state.
	MerchantID string `json:"merchant_id"`

	// Message provides a human-readable status message.
	Message string `json:"message" example:"Payment account connected"`
}

// StatusResponse answers a connection status query.
// @Description Connection status for a merchant
type StatusResponse struct {
	IsConnected bool `json:"isConnected"`

	// Scopes the connection was granted, when connected.
	Scopes []string `json:"scopes,omitempty"`

	// ConnectedAt is when the connection was first established.
	ConnectedAt string `json:"connected_at,omitempty"`
}

// ConnectError represents a connect-flow error with a stable code.
type ConnectError struct {
	Code        string `json:"error" example:"invalid_state"`
	Description string `json:"error_description" example:"The state parameter is invalid or expired"`
}

func (e *ConnectError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// Connect-flow error taxonomy. Validation and state errors are handled at
// the boundary and never reach storage; upstream and storage errors are
// logged with context and sanitized before reaching the user.
var (
	ErrConnectInvalidState  = &ConnectError{Code: "invalid_state", Description: "The state parameter is invalid or expired"}
	ErrConnectMissingCode   = &ConnectError{Code: "missing_code", Description: "No authorization code was provided"}
	ErrConnectDenied        = &ConnectError{Code: "access_denied", Description: "The authorization was declined"}
	ErrConnectExchange      = &ConnectError{Code: "exchange_failed", Description: "Failed to exchange the authorization code for tokens"}
	ErrConnectNoRefresh     = &ConnectError{Code: "no_refresh_token", Description: "The connection has no refresh token"}
	ErrConnectStateNotSaved = &ConnectError{Code: "state_not_saved", Description: "Could not persist the authorization state"}
)
