package driven

import (
	"context"

	"github.com/stagepay/partner-connect/internal/core/domain"
)

// SessionStore handles login session persistence.
// Implementations enforce session expiry (Redis via TTL, Postgres via query).
type SessionStore interface {
	// Save stores a session
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*domain.Session, error)

	// GetByToken retrieves a session by token value
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Delete deletes a session
	Delete(ctx context.Context, id string) error

	// DeleteByMerchant deletes all sessions for a merchant (logout everywhere)
	DeleteByMerchant(ctx context.Context, merchantID string) error
}
