package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driving"
)

// Mock services for testing

type mockConnectService struct {
	issueAuthURLFn func(ctx context.Context, req driving.IssueAuthURLRequest) (*driving.IssueAuthURLResponse, error)
	callbackFn     func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error)
	statusFn       func(ctx context.Context, merchantID string) (*driving.StatusResponse, error)
	refreshFn      func(ctx context.Context, merchantID string) (*driving.StatusResponse, error)
	disconnectFn   func(ctx context.Context, merchantID string) error
}

func (m *mockConnectService) IssueAuthURL(ctx context.Context, req driving.IssueAuthURLRequest) (*driving.IssueAuthURLResponse, error) {
	if m.issueAuthURLFn != nil {
		return m.issueAuthURLFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConnectService) Callback(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
	if m.callbackFn != nil {
		return m.callbackFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConnectService) Status(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, merchantID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConnectService) Refresh(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, merchantID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockConnectService) Disconnect(ctx context.Context, merchantID string) error {
	if m.disconnectFn != nil {
		return m.disconnectFn(ctx, merchantID)
	}
	return errors.New("not implemented")
}

type mockAuthService struct {
	authenticateFn  func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
	logoutFn        func(ctx context.Context, token string) error
}

func (m *mockAuthService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func newTestServer(connect *mockConnectService, auth *mockAuthService) *Server {
	if connect == nil {
		connect = &mockConnectService{}
	}
	if auth == nil {
		auth = &mockAuthService{}
	}
	cfg := Config{
		Host:           "127.0.0.1",
		Port:           8080,
		Version:        "test",
		AllowedOrigins: []string{"*"},
	}
	return NewServer(cfg, connect, auth, nil, nil)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// getAuthUrl

func TestHandleGetAuthURL_Success(t *testing.T) {
	connect := &mockConnectService{
		issueAuthURLFn: func(ctx context.Context, req driving.IssueAuthURLRequest) (*driving.IssueAuthURLResponse, error) {
			if req.MerchantID != "user1" {
				t.Errorf("expected user1, got %q", req.MerchantID)
			}
			return &driving.IssueAuthURLResponse{
				Success:      true,
				AuthorizeURL: "https://auth.payments.example/oauth2/authorize?state=abc",
				State:        "abc",
			}, nil
		},
	}
	srv := newTestServer(connect, nil)

	rec := postJSON(t, srv.Handler(), "/getAuthUrl", map[string]string{"userId": "user1"}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp driving.IssueAuthURLResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.AuthorizeURL == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleGetAuthURL_MissingUserID(t *testing.T) {
	connect := &mockConnectService{
		issueAuthURLFn: func(ctx context.Context, req driving.IssueAuthURLRequest) (*driving.IssueAuthURLResponse, error) {
			return nil, domain.ErrInvalidInput
		},
	}
	srv := newTestServer(connect, nil)

	rec := postJSON(t, srv.Handler(), "/getAuthUrl", map[string]string{}, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("expected success false body, got %s", rec.Body.String())
	}
}

func TestHandleGetAuthURL_UnknownMerchant(t *testing.T) {
	connect := &mockConnectService{
		issueAuthURLFn: func(ctx context.Context, req driving.IssueAuthURLRequest) (*driving.IssueAuthURLResponse, error) {
			return nil, domain.ErrMerchantNotFound
		},
	}
	srv := newTestServer(connect, nil)

	rec := postJSON(t, srv.Handler(), "/getAuthUrl", map[string]string{"userId": "ghost"}, nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	var failure FailureResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &failure); err != nil {
		t.Fatalf("decode failure body: %v", err)
	}
	if failure.Success {
		t.Error("expected success false in failure body")
	}
	if failure.Message == "" {
		t.Errorf("expected a message in failure body, got %s", rec.Body.String())
	}
}

func TestHandleGetAuthURL_StateNotStored(t *testing.T) {
	connect := &mockConnectService{
		issueAuthURLFn: func(ctx context.Context, req driving.IssueAuthURLRequest) (*driving.IssueAuthURLResponse, error) {
			return nil, driving.ErrConnectStateNotSaved
		},
	}
	srv := newTestServer(connect, nil)

	rec := postJSON(t, srv.Handler(), "/getAuthUrl", map[string]string{"userId": "user1"}, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "authorizeUrl") {
		t.Error("no URL may be returned when the state was not stored")
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("expected success false body, got %s", rec.Body.String())
	}
}

// connectionStatus

func TestHandleConnectionStatus_QueryParam(t *testing.T) {
	connect := &mockConnectService{
		statusFn: func(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
			if merchantID != "user1" {
				t.Errorf("expected user1, got %q", merchantID)
			}
			return &driving.StatusResponse{IsConnected: true}, nil
		},
	}
	srv := newTestServer(connect, nil)

	req := httptest.NewRequest(http.MethodGet, "/connectionStatus?userId=user1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp driving.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsConnected {
		t.Error("expected isConnected true")
	}
}

func TestHandleConnectionStatus_JSONBody(t *testing.T) {
	connect := &mockConnectService{
		statusFn: func(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
			return &driving.StatusResponse{IsConnected: false}, nil
		},
	}
	srv := newTestServer(connect, nil)

	rec := postJSON(t, srv.Handler(), "/connectionStatus", map[string]string{"userId": "user2"}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"isConnected":false`) {
		t.Errorf("expected isConnected false, got %s", rec.Body.String())
	}
}

func TestHandleConnectionStatus_MissingUserID(t *testing.T) {
	srv := newTestServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/connectionStatus", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"isConnected":false`) {
		t.Errorf("expected isConnected false in body, got %s", rec.Body.String())
	}
}

func TestHandleConnectionStatus_StorageFailure(t *testing.T) {
	connect := &mockConnectService{
		statusFn: func(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
			return nil, errors.New("db down")
		},
	}
	srv := newTestServer(connect, nil)

	req := httptest.NewRequest(http.MethodGet, "/connectionStatus?userId=user1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	// A storage failure is a 500, never a plain "not connected" 200.
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

// oauthCallback

func TestHandleOAuthCallback_SuccessPage(t *testing.T) {
	connect := &mockConnectService{
		callbackFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
			if req.Code != "code-1" || req.State != "state-1" {
				t.Errorf("unexpected callback request: %+v", req)
			}
			return &driving.CallbackResponse{MerchantID: "user1", Message: "Payment account connected"}, nil
		},
	}
	srv := newTestServer(connect, nil)

	req := httptest.NewRequest(http.MethodGet, "/oauthCallback?code=code-1&state=state-1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML page, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "Connected") {
		t.Error("expected success page body")
	}
}

func TestHandleOAuthCallback_AccessDenied(t *testing.T) {
	connect := &mockConnectService{
		callbackFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
			return nil, &driving.ConnectError{Code: req.Error, Description: "The user denied access"}
		},
	}
	srv := newTestServer(connect, nil)

	req := httptest.NewRequest(http.MethodGet, "/oauthCallback?error=access_denied&state=state-1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Connection failed") {
		t.Error("expected failure page body")
	}
}

func TestHandleOAuthCallback_InvalidState(t *testing.T) {
	connect := &mockConnectService{
		callbackFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
			return nil, driving.ErrConnectInvalidState
		},
	}
	srv := newTestServer(connect, nil)

	req := httptest.NewRequest(http.MethodGet, "/oauthCallback?code=c&state=forged", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleOAuthCallback_ExchangeFailure(t *testing.T) {
	connect := &mockConnectService{
		callbackFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
			return nil, driving.ErrConnectExchange
		},
	}
	srv := newTestServer(connect, nil)

	req := httptest.NewRequest(http.MethodGet, "/oauthCallback?code=c&state=s", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestHandleOAuthCallback_JSONPost(t *testing.T) {
	connect := &mockConnectService{
		callbackFn: func(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
			return &driving.CallbackResponse{MerchantID: "user1", Message: "Payment account connected"}, nil
		},
	}
	srv := newTestServer(connect, nil)

	rec := postJSON(t, srv.Handler(), "/oauthCallback", map[string]string{"code": "c", "state": "s"}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON response, got %s", ct)
	}
}

// checkLogin

func TestHandleCheckLogin_Success(t *testing.T) {
	auth := &mockAuthService{
		authenticateFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			return &domain.LoginResponse{
				Success:  true,
				UserData: &domain.MerchantSummary{ID: "user1", Name: "Steyn"},
				Token:    "jwt-token",
			}, nil
		},
	}
	srv := newTestServer(nil, auth)

	rec := postJSON(t, srv.Handler(), "/checkLogin", map[string]string{
		"email":    "steyn@example.com",
		"password": "secret",
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.UserData == nil || resp.UserData.ID != "user1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleCheckLogin_InvalidCredentials(t *testing.T) {
	auth := &mockAuthService{
		authenticateFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	srv := newTestServer(nil, auth)

	rec := postJSON(t, srv.Handler(), "/checkLogin", map[string]string{
		"email":    "steyn@example.com",
		"password": "wrong",
	}, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("expected success false body, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"message":"Invalid credentials"`) {
		t.Errorf("expected invalid credentials message, got %s", rec.Body.String())
	}
}

// refreshConnection / disconnect

func validTokenAuth(merchantID string) *mockAuthService {
	return &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			return &domain.AuthContext{MerchantID: merchantID, SessionID: "session-1"}, nil
		},
	}
}

func TestHandleRefreshConnection_Success(t *testing.T) {
	connect := &mockConnectService{
		refreshFn: func(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
			return &driving.StatusResponse{IsConnected: true}, nil
		},
	}
	srv := newTestServer(connect, validTokenAuth("user1"))

	rec := postJSON(t, srv.Handler(), "/refreshConnection", map[string]string{"userId": "user1"},
		map[string]string{"Authorization": "Bearer token"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRefreshConnection_Unauthenticated(t *testing.T) {
	srv := newTestServer(nil, &mockAuthService{})

	rec := postJSON(t, srv.Handler(), "/refreshConnection", map[string]string{"userId": "user1"}, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleRefreshConnection_OtherMerchant(t *testing.T) {
	srv := newTestServer(nil, validTokenAuth("user2"))

	rec := postJSON(t, srv.Handler(), "/refreshConnection", map[string]string{"userId": "user1"},
		map[string]string{"Authorization": "Bearer token"})

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandleRefreshConnection_NoRefreshToken(t *testing.T) {
	connect := &mockConnectService{
		refreshFn: func(ctx context.Context, merchantID string) (*driving.StatusResponse, error) {
			return nil, driving.ErrConnectNoRefresh
		},
	}
	srv := newTestServer(connect, validTokenAuth("user1"))

	rec := postJSON(t, srv.Handler(), "/refreshConnection", map[string]string{"userId": "user1"},
		map[string]string{"Authorization": "Bearer token"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleDisconnect_Success(t *testing.T) {
	var disconnected string
	connect := &mockConnectService{
		disconnectFn: func(ctx context.Context, merchantID string) error {
			disconnected = merchantID
			return nil
		},
	}
	srv := newTestServer(connect, validTokenAuth("user1"))

	rec := postJSON(t, srv.Handler(), "/disconnect", map[string]string{"userId": "user1"},
		map[string]string{"Authorization": "Bearer token"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if disconnected != "user1" {
		t.Errorf("expected user1 disconnected, got %q", disconnected)
	}
}

// health

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
