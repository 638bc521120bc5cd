package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIClient_GetAuthURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getAuthUrl" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			MerchantID string `json:"userId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MerchantID != "user1" {
			t.Errorf("expected user1, got %q", req.MerchantID)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "authorizeUrl": "https://auth.payments.example/x", "state": "abc"}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL)

	resp, err := client.GetAuthURL(context.Background(), "user1")
	if err != nil {
		t.Fatalf("GetAuthURL: %v", err)
	}
	if resp.AuthorizeURL != "https://auth.payments.example/x" {
		t.Errorf("AuthorizeURL: got %q", resp.AuthorizeURL)
	}
}

func TestAPIClient_GetAuthURL_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "unknown merchant"}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL)

	if _, err := client.GetAuthURL(context.Background(), "ghost"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestAPIClient_ConnectionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/connectionStatus" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("userId"); got != "user1" {
			t.Errorf("expected userId=user1, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"isConnected": true, "scopes": ["payments.read"]}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL)

	status, err := client.ConnectionStatus(context.Background(), "user1")
	if err != nil {
		t.Fatalf("ConnectionStatus: %v", err)
	}
	if !status.IsConnected {
		t.Error("expected isConnected true")
	}
}

func TestAPIClient_ConnectionStatus_ServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success": false, "isConnected": false, "message": "could not read connection status"}`))
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL)

	if _, err := client.ConnectionStatus(context.Background(), "user1"); err == nil {
		t.Error("expected error for 500 response")
	}
}
