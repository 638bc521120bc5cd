package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore implements driven.SessionStore using PostgreSQL.
// Expiry is enforced at query time; Cleanup removes dead rows.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Save stores a session
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, merchant_id, token, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			token = EXCLUDED.token,
			expires_at = EXCLUDED.expires_at,
			user_agent = EXCLUDED.user_agent,
			ip_address = EXCLUDED.ip_address
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.MerchantID,
		session.Token,
		session.ExpiresAt,
		session.CreatedAt,
		nullString(session.UserAgent),
		nullString(session.IPAddress),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.getWhere(ctx, `id = $1 AND expires_at > NOW()`, id)
}

// GetByToken retrieves a session by token value
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	return s.getWhere(ctx, `token = $1 AND expires_at > NOW()`, token)
}

// Delete deletes a session
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByMerchant deletes all sessions for a merchant (logout everywhere)
func (s *SessionStore) DeleteByMerchant(ctx context.Context, merchantID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE merchant_id = $1`, merchantID)
	if err != nil {
		return fmt.Errorf("delete merchant sessions: %w", err)
	}
	return nil
}

// Cleanup removes expired sessions
func (s *SessionStore) Cleanup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}

func (s *SessionStore) getWhere(ctx context.Context, where string, arg any) (*domain.Session, error) {
	query := `
		SELECT id, merchant_id, token, expires_at, created_at, user_agent, ip_address
		FROM sessions
		WHERE ` + where

	var session domain.Session
	var userAgent, ipAddress sql.NullString
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&session.ID,
		&session.MerchantID,
		&session.Token,
		&session.ExpiresAt,
		&session.CreatedAt,
		&userAgent,
		&ipAddress,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	session.UserAgent = userAgent.String
	session.IPAddress = ipAddress.String
	return &session, nil
}
