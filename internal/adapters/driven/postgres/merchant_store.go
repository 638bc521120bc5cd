package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MerchantStore = (*MerchantStore)(nil)

// MerchantStore implements driven.MerchantStore using PostgreSQL
type MerchantStore struct {
	db *DB
}

// NewMerchantStore creates a new MerchantStore
func NewMerchantStore(db *DB) *MerchantStore {
	return &MerchantStore{db: db}
}

// Save creates or updates a merchant
func (s *MerchantStore) Save(ctx context.Context, merchant *domain.Merchant) error {
	now := time.Now()
	if merchant.CreatedAt.IsZero() {
		merchant.CreatedAt = now
	}
	merchant.UpdatedAt = now

	query := `
		INSERT INTO merchants (id, email, password_hash, name, active, created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		merchant.ID,
		merchant.Email,
		merchant.PasswordHash,
		merchant.Name,
		merchant.Active,
		merchant.CreatedAt,
		merchant.UpdatedAt,
		nullTime(merchant.LastLoginAt),
	)
	if err != nil {
		return fmt.Errorf("save merchant: %w", err)
	}
	return nil
}

// Get retrieves a merchant by ID
func (s *MerchantStore) Get(ctx context.Context, id string) (*domain.Merchant, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves a merchant by email
func (s *MerchantStore) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	return s.get(ctx, `WHERE email = $1`, email)
}

// Exists reports whether the merchant id is known
func (s *MerchantStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM merchants WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check merchant: %w", err)
	}
	return exists, nil
}

// List retrieves all merchants
func (s *MerchantStore) List(ctx context.Context) ([]*domain.Merchant, error) {
	query := `
		SELECT id, email, password_hash, name, active, created_at, updated_at, last_login_at
		FROM merchants
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	var merchants []*domain.Merchant
	for rows.Next() {
		merchant, err := scanMerchant(rows.Scan)
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, merchant)
	}
	return merchants, rows.Err()
}

// UpdateLastLogin updates the last login timestamp
func (s *MerchantStore) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE merchants SET last_login_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (s *MerchantStore) get(ctx context.Context, where string, arg any) (*domain.Merchant, error) {
	query := `
		SELECT id, email, password_hash, name, active, created_at, updated_at, last_login_at
		FROM merchants ` + where

	merchant, err := scanMerchant(s.db.QueryRowContext(ctx, query, arg).Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	return merchant, nil
}

func scanMerchant(scan func(dest ...any) error) (*domain.Merchant, error) {
	var merchant domain.Merchant
	var lastLogin sql.NullTime

	err := scan(
		&merchant.ID,
		&merchant.Email,
		&merchant.PasswordHash,
		&merchant.Name,
		&merchant.Active,
		&merchant.CreatedAt,
		&merchant.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		merchant.LastLoginAt = &lastLogin.Time
	}
	return &merchant, nil
}
