package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.OAuthStateStore = (*OAuthStateStore)(nil)

const oauthStatePrefix = "oauth:state:"

// OAuthStateStore implements driven.OAuthStateStore using Redis.
// States expire via Redis TTL; single-use consumption is a GETDEL.
type OAuthStateStore struct {
	client *redis.Client
}

// NewOAuthStateStore creates a new Redis-backed OAuth state store
func NewOAuthStateStore(client *redis.Client) *OAuthStateStore {
	return &OAuthStateStore{client: client}
}

// Save stores a new OAuth state. SETNX guarantees insert-if-absent: a
// colliding token returns domain.ErrAlreadyExists instead of overwriting.
func (s *OAuthStateStore) Save(ctx context.Context, state *driven.OAuthState) error {
	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("oauth state already expired")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal oauth state: %w", err)
	}

	ok, err := s.client.SetNX(ctx, oauthStatePrefix+state.State, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyExists
	}
	return nil
}

// GetAndDelete atomically retrieves and deletes the state.
// Returns nil, nil if the state doesn't exist or has expired.
func (s *OAuthStateStore) GetAndDelete(ctx context.Context, state string) (*driven.OAuthState, error) {
	data, err := s.client.GetDel(ctx, oauthStatePrefix+state).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth state: %w", err)
	}

	var oauthState driven.OAuthState
	if err := json.Unmarshal(data, &oauthState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth state: %w", err)
	}

	// TTL should have removed it already; double-check the deadline.
	if time.Now().After(oauthState.ExpiresAt) {
		return nil, nil
	}

	return &oauthState, nil
}

// Cleanup is a no-op: Redis TTL handles expiry.
func (s *OAuthStateStore) Cleanup(ctx context.Context) error {
	return nil
}
