package domain

import "time"

// Session represents an authenticated merchant-app session
type Session struct {
	ID           string    `json:"id"`
	MerchantID   string    `json:"merchant_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuthContext contains authenticated merchant info for request context
type AuthContext struct {
	MerchantID string `json:"merchant_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	SessionID  string `json:"session_id"`
}

// LoginRequest represents a login attempt.
// Matches the mobile app's checkLogin body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful authentication.
// UserData mirrors what the mobile app expects from checkLogin; the session
// token is additional so the client can call authenticated endpoints.
type LoginResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message,omitempty"`
	UserData  *MerchantSummary `json:"userData,omitempty"`
	Token     string           `json:"token,omitempty"`
	ExpiresAt time.Time        `json:"expires_at,omitempty"`
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	MerchantID string `json:"merchant_id"`
	Email      string `json:"email"`
	SessionID  string `json:"session_id"`
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
}
