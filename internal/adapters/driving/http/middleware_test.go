package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stagepay/partner-connect/internal/core/domain"
)

func TestAuthenticate_MissingToken(t *testing.T) {
	m := NewAuthMiddleware(&mockAuthService{})
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/refreshConnection", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	m := NewAuthMiddleware(&mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			return nil, domain.ErrTokenExpired
		},
	})
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/refreshConnection", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_AddsAuthContext(t *testing.T) {
	m := NewAuthMiddleware(&mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			return &domain.AuthContext{MerchantID: "user1", SessionID: "session-1"}, nil
		},
	})

	var got *domain.AuthContext
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetAuthContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/refreshConnection", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got == nil || got.MerchantID != "user1" {
		t.Errorf("expected auth context for user1, got %+v", got)
	}
}

func TestExtractBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if extractBearerToken(req) != "" {
		t.Error("expected empty token without header")
	}

	req.Header.Set("Authorization", "Bearer abc123")
	if extractBearerToken(req) != "abc123" {
		t.Errorf("got %q", extractBearerToken(req))
	}

	req.Header.Set("Authorization", "Basic abc123")
	if extractBearerToken(req) != "" {
		t.Error("expected empty token for non-bearer scheme")
	}
}

func TestGetAuthContext_Nil(t *testing.T) {
	if GetAuthContext(nil) != nil {
		t.Error("expected nil for nil context")
	}
	if GetAuthContext(context.Background()) != nil {
		t.Error("expected nil for context without auth")
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	m := NewCORSMiddleware([]string{"*"})
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/getAuthUrl", nil)
	req.Header.Set("Origin", "https://merchant-app.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://merchant-app.example" {
		t.Errorf("missing CORS origin header")
	}
}
