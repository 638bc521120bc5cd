package driving

import (
	"context"

	"github.com/stagepay/partner-connect/internal/core/domain"
)

// AuthService is the login collaborator. It is not part of the connect core;
// the core only sees merchants through the directory port.
type AuthService interface {
	// Authenticate validates credentials and creates a session
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken validates a session token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// Logout invalidates the session behind the token
	Logout(ctx context.Context, token string) error
}
