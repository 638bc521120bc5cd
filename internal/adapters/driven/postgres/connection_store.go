package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driven"
)

// Ensure ConnectionStore implements the interface.
var _ driven.ConnectionStore = (*ConnectionStore)(nil)

// ConnectionStore implements driven.ConnectionStore using PostgreSQL.
// Tokens are encrypted before storage.
type ConnectionStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewConnectionStore creates a new PostgreSQL-backed connection store.
func NewConnectionStore(db *DB, encryptor *SecretEncryptor) *ConnectionStore {
	return &ConnectionStore{
		db:        db,
		encryptor: encryptor,
	}
}

// Upsert stores a connection with merge semantics. The read-merge-write runs
// inside a transaction with the merchant row locked, so concurrent callbacks
// for the same merchant cannot interleave partial writes.
func (s *ConnectionStore) Upsert(ctx context.Context, conn *domain.Connection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.getForUpdate(ctx, tx, conn.MerchantID)
	if err != nil && err != domain.ErrNotFound {
		return err
	}

	merged := conn
	if existing != nil {
		existing.Merge(conn)
		merged = existing
	}

	if merged.ConnectedAt.IsZero() {
		merged.ConnectedAt = time.Now()
	}
	if merged.UpdatedAt.IsZero() {
		merged.UpdatedAt = time.Now()
	}

	secretBlob, err := s.encryptor.Encrypt(merged.Secrets)
	if err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}

	query := `
		INSERT INTO connections (merchant_id, token_type, scopes, expiry, secret_blob, connected_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (merchant_id) DO UPDATE SET
			token_type = EXCLUDED.token_type,
			scopes = EXCLUDED.scopes,
			expiry = EXCLUDED.expiry,
			secret_blob = EXCLUDED.secret_blob,
			updated_at = EXCLUDED.updated_at
	`

	_, err = tx.ExecContext(ctx, query,
		merged.MerchantID,
		nullString(merged.TokenType),
		pq.Array(merged.Scopes),
		nullTime(merged.Expiry),
		secretBlob,
		merged.ConnectedAt,
		merged.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Get retrieves a connection by merchant id with decrypted tokens.
func (s *ConnectionStore) Get(ctx context.Context, merchantID string) (*domain.Connection, error) {
	query := `
		SELECT merchant_id, token_type, scopes, expiry, secret_blob, connected_at, updated_at
		FROM connections
		WHERE merchant_id = $1
	`
	return s.scanConnection(s.db.QueryRowContext(ctx, query, merchantID))
}

// Exists reports whether a connection exists for the merchant.
func (s *ConnectionStore) Exists(ctx context.Context, merchantID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM connections WHERE merchant_id = $1)`,
		merchantID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check connection: %w", err)
	}
	return exists, nil
}

// Delete removes a merchant's connection.
func (s *ConnectionStore) Delete(ctx context.Context, merchantID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE merchant_id = $1`, merchantID)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}

// getForUpdate reads a connection inside a transaction with a row lock.
func (s *ConnectionStore) getForUpdate(ctx context.Context, tx *sql.Tx, merchantID string) (*domain.Connection, error) {
	query := `
		SELECT merchant_id, token_type, scopes, expiry, secret_blob, connected_at, updated_at
		FROM connections
		WHERE merchant_id = $1
		FOR UPDATE
	`
	return s.scanConnection(tx.QueryRowContext(ctx, query, merchantID))
}

func (s *ConnectionStore) scanConnection(row *sql.Row) (*domain.Connection, error) {
	var conn domain.Connection
	var secretBlob []byte
	var tokenType sql.NullString
	var expiry sql.NullTime
	var scopes []string

	err := row.Scan(
		&conn.MerchantID,
		&tokenType,
		pq.Array(&scopes),
		&expiry,
		&secretBlob,
		&conn.ConnectedAt,
		&conn.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	if len(secretBlob) > 0 {
		conn.Secrets = &domain.ConnectionSecrets{}
		if err := s.encryptor.Decrypt(secretBlob, conn.Secrets); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	conn.TokenType = tokenType.String
	if expiry.Valid {
		conn.Expiry = &expiry.Time
	}
	conn.Scopes = scopes

	return &conn, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
