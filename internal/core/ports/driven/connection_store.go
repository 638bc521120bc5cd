package driven

import (
	"context"

	"github.com/stagepay/partner-connect/internal/core/domain"
)

// ConnectionStore persists merchant connections with encrypted tokens.
type ConnectionStore interface {
	// Upsert stores a connection with merge semantics: fields absent from
	// the given record keep their stored value. The merge is atomic, so
	// concurrent callbacks for the same merchant cannot interleave
	// partial writes.
	Upsert(ctx context.Context, conn *domain.Connection) error

	// Get retrieves a connection by merchant id with decrypted tokens.
	// Returns domain.ErrNotFound if the merchant has no connection.
	Get(ctx context.Context, merchantID string) (*domain.Connection, error)

	// Exists reports whether a connection exists for the merchant.
	// A storage failure is returned as an error, never as false.
	Exists(ctx context.Context, merchantID string) (bool, error)

	// Delete removes a merchant's connection. Deleting an absent
	// connection is not an error.
	Delete(ctx context.Context, merchantID string) error
}
