package driven

import (
	"context"

	"github.com/stagepay/partner-connect/internal/core/domain"
)

// MerchantStore is the merchant directory.
// The connect core only depends on Exists; the login collaborator uses the rest.
type MerchantStore interface {
	// Save creates or updates a merchant
	Save(ctx context.Context, merchant *domain.Merchant) error

	// Get retrieves a merchant by ID
	Get(ctx context.Context, id string) (*domain.Merchant, error)

	// GetByEmail retrieves a merchant by email
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)

	// Exists reports whether the merchant id is known
	Exists(ctx context.Context, id string) (bool, error)

	// List retrieves all merchants
	List(ctx context.Context) ([]*domain.Merchant, error)

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, id string) error
}
