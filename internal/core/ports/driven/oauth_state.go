package driven

import (
	"context"
	"time"
)

// OAuthState represents a pending OAuth authorization flow state.
// It correlates the callback with the merchant who started the flow and
// provides CSRF protection: the raw state value is never trusted as an
// identity, only the stored mapping is.
type OAuthState struct {
	// State is a cryptographically random string used for CSRF protection.
	State string

	// MerchantID is the merchant who initiated the flow.
	MerchantID string

	// RedirectURI is the callback URL the provider will redirect to.
	// The token exchange must present the exact same value.
	RedirectURI string

	// CreatedAt is when the state was created.
	CreatedAt time.Time

	// ExpiresAt is when the state expires (typically 10 minutes).
	ExpiresAt time.Time
}

// OAuthStateStore manages OAuth flow state for CSRF protection.
// States are single-use and expire after a short period.
type OAuthStateStore interface {
	// Save stores a new OAuth state. The insert must not silently overwrite
	// an existing token: a collision returns domain.ErrAlreadyExists.
	Save(ctx context.Context, state *OAuthState) error

	// GetAndDelete atomically retrieves and deletes the state.
	// This ensures single-use semantics.
	// Returns nil, nil if the state doesn't exist or has expired.
	GetAndDelete(ctx context.Context, state string) (*OAuthState, error)

	// Cleanup removes expired states.
	// Should be called periodically to clean up orphaned states.
	Cleanup(ctx context.Context) error
}
