package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driven"
	"github.com/stagepay/partner-connect/internal/core/ports/driving"
)

// Ensure connectService implements ConnectService
var _ driving.ConnectService = (*connectService)(nil)

// DefaultStateTTL is how long a minted authorization state stays valid.
const DefaultStateTTL = 10 * time.Minute

// ConnectServiceConfig holds configuration for the connect service.
type ConnectServiceConfig struct {
	// MerchantStore answers "does this merchant exist".
	MerchantStore driven.MerchantStore

	// StateStore manages OAuth flow state.
	StateStore driven.OAuthStateStore

	// ConnectionStore persists merchant connections.
	ConnectionStore driven.ConnectionStore

	// Provider talks OAuth2 to the payment platform.
	Provider driven.ProviderClient

	// RedirectURI is the fixed callback endpoint registered with the
	// provider. The exact same value is sent at issuance and exchange.
	RedirectURI string

	// StateTTL overrides DefaultStateTTL when non-zero.
	StateTTL time.Duration

	// Logger receives failure causes before they are sanitized.
	Logger *slog.Logger
}

// connectService implements the ConnectService interface.
type connectService struct {
	merchants   driven.MerchantStore
	states      driven.OAuthStateStore
	connections driven.ConnectionStore
	provider    driven.ProviderClient
	redirectURI string
	stateTTL    time.Duration
	logger      *slog.Logger
}

// NewConnectService creates a new connect service.
func NewConnectService(cfg ConnectServiceConfig) driving.ConnectService {
	ttl := cfg.StateTTL
	if ttl == 0 {
		ttl = DefaultStateTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &connectService{
		merchants:   cfg.MerchantStore,
		states:      cfg.StateStore,
		connections: cfg.ConnectionStore,
		provider:    cfg.Provider,
		redirectURI: cfg.RedirectURI,
		stateTTL:    ttl,
		logger:      logger,
	}
}

// IssueAuthURL starts an OAuth authorization flow for a merchant.
// It generates a random state, stores it, and returns the authorization URL.
// Repeated calls mint fresh, independent states; none invalidates another.
func (s *connectService) IssueAuthURL(ctx context.Context, req driving.IssueAuthURLRequest) (*driving.IssueAuthURLResponse, error) {
	if req.MerchantID == "" {
		return nil, domain.ErrInvalidInput
	}

	exists, err := s.merchants.Exists(ctx, req.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("%w: check merchant: %w", domain.ErrStorage, err)
	}
	if !exists {
		return nil, domain.ErrMerchantNotFound
	}

	// CSRF protection: the callback resolves the merchant through this
	// token, never from a client-supplied value.
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.stateTTL)
	oauthState := &driven.OAuthState{
		State:       state,
		MerchantID:  req.MerchantID,
		RedirectURI: s.redirectURI,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}

	// The URL must not be handed out unless the state is durably stored,
	// otherwise the callback cannot be validated.
	if err := s.states.Save(ctx, oauthState); err != nil {
		s.logger.Error("save oauth state", "merchant_id", req.MerchantID, "err", err)
		return nil, driving.ErrConnectStateNotSaved
	}

	authURL := s.provider.BuildAuthURL(s.redirectURI, state, s.provider.DefaultScopes())

	return &driving.IssueAuthURLResponse{
		Success:      true,
		AuthorizeURL: authURL,
		State:        state,
		ExpiresAt:    expiresAt.Format(time.RFC3339),
	}, nil
}

// Callback handles the OAuth callback from the provider.
// It validates and consumes the state, exchanges the code for tokens and
// merge-upserts the connection for the resolved merchant.
func (s *connectService) Callback(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
	// Provider-reported error: surface immediately, no exchange attempt.
	// A decline gets the fixed taxonomy error so the provider's own
	// description never reaches the result page.
	if req.Error != "" {
		if req.Error == driving.ErrConnectDenied.Code {
			return nil, driving.ErrConnectDenied
		}
		return nil, &driving.ConnectError{
			Code:        req.Error,
			Description: req.ErrorDescription,
		}
	}

	if req.Code == "" {
		return nil, driving.ErrConnectMissingCode
	}

	// Validate and consume the state (single-use).
	oauthState, err := s.states.GetAndDelete(ctx, req.State)
	if err != nil {
		return nil, fmt.Errorf("%w: get oauth state: %w", domain.ErrStorage, err)
	}
	if oauthState == nil {
		return nil, driving.ErrConnectInvalidState
	}

	token, err := s.provider.ExchangeCode(ctx, req.Code, oauthState.RedirectURI)
	if err != nil {
		s.logger.Error("token exchange failed", "merchant_id", oauthState.MerchantID, "err", err)
		return nil, driving.ErrConnectExchange
	}

	if err := s.upsertConnection(ctx, oauthState.MerchantID, token); err != nil {
		s.logger.Error("persist connection", "merchant_id", oauthState.MerchantID, "err", err)
		return nil, fmt.Errorf("%w: persist connection: %w", domain.ErrStorage, err)
	}

	return &driving.CallbackResponse{
		MerchantID: oauthState.MerchantID,
		Message:    "Payment account connected",
	}, nil
}

// Status reports whether the merchant has a stored connection.
func (s *connectService) Status(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
	if merchantID == "" {
		return nil, domain.ErrInvalidInput
	}

	conn, err := s.connections.Get(ctx, merchantID)
	if errors.Is(err, domain.ErrNotFound) {
		return &driving.StatusResponse{IsConnected: false}, nil
	}
	if err != nil {
		// Storage failures surface as errors, not as "not connected".
		return nil, fmt.Errorf("%w: read connection: %w", domain.ErrStorage, err)
	}

	return &driving.StatusResponse{
		IsConnected: true,
		Scopes:      conn.Scopes,
		ConnectedAt: conn.ConnectedAt.Format(time.RFC3339),
	}, nil
}

// Refresh exchanges the stored refresh token for fresh tokens.
func (s *connectService) Refresh(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
	if merchantID == "" {
		return nil, domain.ErrInvalidInput
	}

	conn, err := s.connections.Get(ctx, merchantID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read connection: %w", domain.ErrStorage, err)
	}
	if !conn.HasRefreshToken() {
		return nil, driving.ErrConnectNoRefresh
	}

	token, err := s.provider.RefreshToken(ctx, conn.Secrets.RefreshToken)
	if err != nil {
		s.logger.Error("token refresh failed", "merchant_id", merchantID, "err", err)
		return nil, driving.ErrConnectExchange
	}

	if err := s.upsertConnection(ctx, merchantID, token); err != nil {
		s.logger.Error("persist refreshed connection", "merchant_id", merchantID, "err", err)
		return nil, fmt.Errorf("%w: persist connection: %w", domain.ErrStorage, err)
	}

	return s.Status(ctx, merchantID)
}

// Disconnect removes the merchant's stored connection.
func (s *connectService) Disconnect(ctx context.Context, merchantID string) error {
	if merchantID == "" {
		return domain.ErrInvalidInput
	}
	return s.connections.Delete(ctx, merchantID)
}

// upsertConnection folds a token response into the stored connection.
func (s *connectService) upsertConnection(ctx context.Context, merchantID string, token *driven.OAuthToken) error {
	now := time.Now()
	conn := &domain.Connection{
		MerchantID:  merchantID,
		TokenType:   token.TokenType,
		Scopes:      splitScopes(token.Scope),
		ConnectedAt: now,
		UpdatedAt:   now,
		Secrets: &domain.ConnectionSecrets{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
		},
	}
	if token.ExpiresIn > 0 {
		t := now.Add(time.Duration(token.ExpiresIn) * time.Second)
		conn.Expiry = &t
	}
	return s.connections.Upsert(ctx, conn)
}

// generateState generates a cryptographically secure random state token.
func generateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// splitScopes splits a space or comma separated scope string into a slice.
func splitScopes(scope string) []string {
	var scopes []string
	var current string
	for _, c := range scope {
		if c == ' ' || c == ',' {
			if current != "" {
				scopes = append(scopes, current)
				current = ""
			}
		} else {
			current += string(c)
		}
	}
	if current != "" {
		scopes = append(scopes, current)
	}
	return scopes
}
