package domain

import "time"

// Connection is the persisted proof that a merchant completed the payment
// platform's authorization and holds valid tokens. Keyed by merchant id;
// exactly one connection per merchant.
type Connection struct {
	MerchantID  string     `json:"merchant_id"`
	TokenType   string     `json:"token_type,omitempty"`
	Scopes      []string   `json:"scopes,omitempty"`
	Expiry      *time.Time `json:"expiry,omitempty"`
	ConnectedAt time.Time  `json:"connected_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Secrets holds the tokens. Encrypted at rest; omitted from summaries.
	Secrets *ConnectionSecrets `json:"secrets,omitempty"`
}

// ConnectionSecrets holds the sensitive token material for a connection.
type ConnectionSecrets struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ConnectionSummary provides a safe view of a connection (no tokens)
type ConnectionSummary struct {
	MerchantID  string     `json:"merchant_id"`
	Scopes      []string   `json:"scopes,omitempty"`
	Expiry      *time.Time `json:"expiry,omitempty"`
	ConnectedAt time.Time  `json:"connected_at"`
}

// ToSummary converts a Connection to ConnectionSummary
func (c *Connection) ToSummary() *ConnectionSummary {
	return &ConnectionSummary{
		MerchantID:  c.MerchantID,
		Scopes:      c.Scopes,
		Expiry:      c.Expiry,
		ConnectedAt: c.ConnectedAt,
	}
}

// Merge folds a fresh token response into the connection. Fields absent from
// the update keep their stored value, so an exchange response that omits
// refresh_token does not clobber a previously issued one.
func (c *Connection) Merge(update *Connection) {
	if update.TokenType != "" {
		c.TokenType = update.TokenType
	}
	if len(update.Scopes) > 0 {
		c.Scopes = update.Scopes
	}
	if update.Expiry != nil {
		c.Expiry = update.Expiry
	}
	if update.Secrets != nil {
		if c.Secrets == nil {
			c.Secrets = &ConnectionSecrets{}
		}
		if update.Secrets.AccessToken != "" {
			c.Secrets.AccessToken = update.Secrets.AccessToken
		}
		if update.Secrets.RefreshToken != "" {
			c.Secrets.RefreshToken = update.Secrets.RefreshToken
		}
	}
	c.UpdatedAt = update.UpdatedAt
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
}

// HasRefreshToken reports whether the connection can be refreshed.
func (c *Connection) HasRefreshToken() bool {
	return c.Secrets != nil && c.Secrets.RefreshToken != ""
}
