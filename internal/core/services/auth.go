package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driven"
	"github.com/stagepay/partner-connect/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface
type authService struct {
	merchantStore driven.MerchantStore
	sessionStore  driven.SessionStore
	authAdapter   driven.AuthAdapter
	tokenTTL      time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(
	merchantStore driven.MerchantStore,
	sessionStore driven.SessionStore,
	authAdapter driven.AuthAdapter,
) driving.AuthService {
	return &authService{
		merchantStore: merchantStore,
		sessionStore:  sessionStore,
		authAdapter:   authAdapter,
		tokenTTL:      24 * time.Hour,
	}
}

// Authenticate validates credentials and creates a session
func (s *authService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	merchant, err := s.merchantStore.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !merchant.Active {
		return nil, domain.ErrUnauthorized
	}

	if !s.authAdapter.VerifyPassword(req.Password, merchant.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	claims := &domain.TokenClaims{
		MerchantID: merchant.ID,
		Email:      merchant.Email,
		SessionID:  sessionID,
		IssuedAt:   now.Unix(),
		ExpiresAt:  expiresAt.Unix(),
	}

	token, err := s.authAdapter.GenerateToken(claims)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:         sessionID,
		MerchantID: merchant.ID,
		Token:      token,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
	}

	if err := s.sessionStore.Save(ctx, session); err != nil {
		return nil, err
	}

	_ = s.merchantStore.UpdateLastLogin(ctx, merchant.ID)

	return &domain.LoginResponse{
		Success:   true,
		UserData:  merchant.ToSummary(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a session token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if time.Now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	session, err := s.sessionStore.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	return &domain.AuthContext{
		MerchantID: claims.MerchantID,
		Email:      claims.Email,
		SessionID:  claims.SessionID,
	}, nil
}

// Logout invalidates the session behind the token
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil // Nothing to invalidate
	}
	return s.sessionStore.Delete(ctx, claims.SessionID)
}
