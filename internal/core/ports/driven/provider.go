package driven

import "context"

// OAuthToken is the token response from the payment platform's token endpoint.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int
}

// ProviderClient talks OAuth2 to the payment platform.
// The partner backend is a confidential client: exchange and refresh carry
// the client secret and happen server-side only.
type ProviderClient interface {
	// BuildAuthURL constructs the provider authorization URL containing
	// client_id, redirect_uri, scope, response_type=code and state.
	BuildAuthURL(redirectURI, state string, scopes []string) string

	// ExchangeCode trades an authorization code for tokens.
	// redirectURI must exactly match the one used at authorization.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*OAuthToken, error)

	// RefreshToken obtains fresh tokens using a refresh token.
	RefreshToken(ctx context.Context, refreshToken string) (*OAuthToken, error)

	// DefaultScopes returns the fixed scope set the partner requests.
	DefaultScopes() []string
}
