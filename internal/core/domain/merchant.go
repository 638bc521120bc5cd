package domain

import "time"

// Merchant represents a partner-app user who may connect a payment account.
// The connect core only ever asks the directory "does this merchant exist";
// credentials live here so the login collaborator can verify them.
type Merchant struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize
	Name         string     `json:"name"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// MerchantSummary provides a safe view of merchant data (no password hash)
type MerchantSummary struct {
	ID          string     `json:"userId"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToSummary converts a Merchant to MerchantSummary
func (m *Merchant) ToSummary() *MerchantSummary {
	return &MerchantSummary{
		ID:          m.ID,
		Email:       m.Email,
		Name:        m.Name,
		Active:      m.Active,
		LastLoginAt: m.LastLoginAt,
	}
}
