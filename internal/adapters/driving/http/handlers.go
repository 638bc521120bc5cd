package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// FailureResponse is the error body the merchant app expects from the
// login and connect-flow endpoints.
// @Description Merchant app failure response
type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message" example:"userId is required"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks database and cache connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A backing store is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Login endpoints

// handleCheckLogin godoc
// @Summary      Merchant login
// @Description  Authenticate with email and password to receive merchant data and a session token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  FailureResponse  "Invalid request body or missing fields"
// @Failure      401      {object}  domain.LoginResponse  "Invalid credentials or account disabled"
// @Failure      500      {object}  FailureResponse  "Internal server error"
// @Router       /checkLogin [post]
func (s *Server) handleCheckLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeFailure(w, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, domain.ErrInvalidCredentials):
			// The merchant app keys off the success flag.
			writeJSON(w, http.StatusUnauthorized, &domain.LoginResponse{Success: false, Message: "Invalid credentials"})
		case errors.Is(err, domain.ErrUnauthorized):
			writeFailure(w, http.StatusUnauthorized, "account disabled")
		default:
			writeFailure(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Logout merchant
// @Description  Invalidate the current session token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Router       /logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	_ = s.authService.Logout(r.Context(), token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Connect flow endpoints

// handleGetAuthURL godoc
// @Summary      Start connection flow
// @Description  Mint an authorization state for the merchant and return the platform authorization URL. The URL is only returned once the state is durably stored.
// @Tags         Connect
// @Accept       json
// @Produce      json
// @Param        request  body      driving.IssueAuthURLRequest  true  "Merchant starting the flow"
// @Success      200      {object}  driving.IssueAuthURLResponse
// @Failure      400      {object}  FailureResponse  "Missing userId"
// @Failure      404      {object}  FailureResponse  "Unknown merchant"
// @Failure      500      {object}  FailureResponse  "State could not be stored"
// @Router       /getAuthUrl [post]
func (s *Server) handleGetAuthURL(w http.ResponseWriter, r *http.Request) {
	var req driving.IssueAuthURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.connectService.IssueAuthURL(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeFailure(w, http.StatusBadRequest, "userId is required")
		case errors.Is(err, domain.ErrMerchantNotFound):
			writeFailure(w, http.StatusNotFound, "unknown merchant")
		default:
			writeFailure(w, http.StatusInternalServerError, "could not start connection flow")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// connectionStatusFailure is the body for status queries that cannot be
// answered, matching the merchant app's expectations.
type connectionStatusFailure struct {
	Success     bool   `json:"success"`
	IsConnected bool   `json:"isConnected"`
	Message     string `json:"message"`
}

// handleConnectionStatus godoc
// @Summary      Connection status
// @Description  Report whether the merchant has a stored platform connection. Accepts userId as a query parameter (GET) or JSON body (POST).
// @Tags         Connect
// @Accept       json
// @Produce      json
// @Param        userId  query     string  false  "Merchant ID"
// @Success      200     {object}  driving.StatusResponse
// @Failure      400     {object}  connectionStatusFailure  "Missing userId"
// @Failure      500     {object}  connectionStatusFailure  "Storage read failure"
// @Router       /connectionStatus [get]
func (s *Server) handleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	merchantID := r.URL.Query().Get("userId")
	if merchantID == "" && r.Method == http.MethodPost {
		var req struct {
			MerchantID string `json:"userId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			merchantID = req.MerchantID
		}
	}

	if merchantID == "" {
		writeJSON(w, http.StatusBadRequest, connectionStatusFailure{
			Success:     false,
			IsConnected: false,
			Message:     "userId is required",
		})
		return
	}

	resp, err := s.connectService.Status(r.Context(), merchantID)
	if err != nil {
		// A storage failure must never read as "not connected".
		writeJSON(w, http.StatusInternalServerError, connectionStatusFailure{
			Success:     false,
			IsConnected: false,
			Message:     "could not read connection status",
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleOAuthCallback godoc
// @Summary      OAuth callback
// @Description  Receives the platform redirect, validates and consumes the state, exchanges the code for tokens and stores the connection. Browser requests (GET) receive an HTML result page; POST requests receive JSON. There is no server-side retry; a failed attempt is terminal and the merchant restarts the flow.
// @Tags         Connect
// @Produce      html
// @Param        code   query  string  false  "Authorization code"
// @Param        state  query  string  false  "State token from the authorization URL"
// @Param        error  query  string  false  "Provider error code"
// @Success      200  {string}  string  "Success page"
// @Failure      400  {string}  string  "Failure page (invalid state, missing code, access denied)"
// @Failure      502  {string}  string  "Failure page (token exchange failed)"
// @Router       /oauthCallback [get]
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	var req driving.CallbackRequest
	if r.Method == http.MethodPost && r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		q := r.URL.Query()
		req = driving.CallbackRequest{
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		}
	}

	wantHTML := r.Method == http.MethodGet

	resp, err := s.connectService.Callback(r.Context(), req)
	if err != nil {
		status, message := callbackFailure(err)
		if wantHTML {
			renderFailurePage(w, status, message)
		} else {
			writeError(w, status, message)
		}
		return
	}

	if wantHTML {
		renderSuccessPage(w, resp.Message)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// callbackFailure maps a callback error to a status code and a message that
// is safe to show in a browser. Internal causes are logged by the service.
func callbackFailure(err error) (int, string) {
	var connErr *driving.ConnectError
	if errors.As(err, &connErr) {
		switch connErr {
		case driving.ErrConnectExchange:
			return http.StatusBadGateway, connErr.Description
		default:
			msg := connErr.Description
			if msg == "" {
				msg = "The authorization was not completed"
			}
			return http.StatusBadRequest, msg
		}
	}
	return http.StatusInternalServerError, "Something went wrong storing the connection"
}

// handleRefreshConnection godoc
// @Summary      Refresh connection tokens
// @Description  Exchange the stored refresh token for fresh tokens. Only the authenticated merchant can refresh their own connection.
// @Tags         Connect
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      refreshConnectionRequest  true  "Merchant to refresh"
// @Success      200      {object}  driving.StatusResponse
// @Failure      400      {object}  ErrorResponse  "Missing userId or no refresh token stored"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Refreshing another merchant's connection"
// @Failure      404      {object}  ErrorResponse  "Merchant has no connection"
// @Failure      502      {object}  ErrorResponse  "Token refresh failed upstream"
// @Router       /refreshConnection [post]
func (s *Server) handleRefreshConnection(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := s.requireOwnMerchant(w, r)
	if !ok {
		return
	}

	resp, err := s.connectService.Refresh(r.Context(), merchantID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotConnected):
			writeError(w, http.StatusNotFound, "no connection to refresh")
		case errors.Is(err, driving.ErrConnectNoRefresh):
			writeError(w, http.StatusBadRequest, "connection has no refresh token")
		case errors.Is(err, driving.ErrConnectExchange):
			writeError(w, http.StatusBadGateway, "token refresh failed")
		default:
			writeError(w, http.StatusInternalServerError, "could not refresh connection")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDisconnect godoc
// @Summary      Disconnect merchant account
// @Description  Remove the merchant's stored platform connection. Removing an absent connection still succeeds.
// @Tags         Connect
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      refreshConnectionRequest  true  "Merchant to disconnect"
// @Success      200      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse  "Missing userId"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Disconnecting another merchant's connection"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /disconnect [post]
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := s.requireOwnMerchant(w, r)
	if !ok {
		return
	}

	if err := s.connectService.Disconnect(r.Context(), merchantID); err != nil {
		writeError(w, http.StatusInternalServerError, "could not disconnect")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// refreshConnectionRequest identifies a merchant in connection management calls
// @Description Merchant identifier
type refreshConnectionRequest struct {
	MerchantID string `json:"userId" example:"user1"`
}

// requireOwnMerchant decodes the userId from the body and verifies it matches
// the authenticated merchant. Writes the error response on failure.
func (s *Server) requireOwnMerchant(w http.ResponseWriter, r *http.Request) (string, bool) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}

	var req refreshConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.MerchantID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return "", false
	}
	if req.MerchantID != authCtx.MerchantID {
		writeError(w, http.StatusForbidden, "cannot manage another merchant's connection")
		return "", false
	}

	return req.MerchantID, true
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, FailureResponse{Success: false, Message: message})
}
