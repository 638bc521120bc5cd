package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stagepay/partner-connect/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	connectService driving.ConnectService
	authService    driving.AuthService

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// AllowedOrigins for CORS. The merchant app runs on a separate origin.
	AllowedOrigins []string
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	connectService driving.ConnectService,
	authService driving.AuthService,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		connectService: connectService,
		authService:    authService,
		db:             db,
		redisClient:    redisClient,
	}

	logging := NewLoggingMiddleware()
	recovery := NewRecoveryMiddleware()
	cors := NewCORSMiddleware(cfg.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      recovery.Handler(logging.Handler(cors.Handler(s.router))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Create middleware
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Login endpoints
	s.router.HandleFunc("POST /checkLogin", s.handleCheckLogin)
	s.router.Handle("POST /logout",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleLogout)))

	// Connect flow endpoints (public, matching the merchant app contract)
	s.router.HandleFunc("POST /getAuthUrl", s.handleGetAuthURL)
	s.router.HandleFunc("GET /connectionStatus", s.handleConnectionStatus)
	s.router.HandleFunc("POST /connectionStatus", s.handleConnectionStatus)

	// Callback is public - receives redirects from the payment platform
	s.router.HandleFunc("GET /oauthCallback", s.handleOAuthCallback)
	s.router.HandleFunc("POST /oauthCallback", s.handleOAuthCallback)

	// Connection management (authenticated)
	s.router.Handle("POST /refreshConnection",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRefreshConnection)))
	s.router.Handle("POST /disconnect",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDisconnect)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
