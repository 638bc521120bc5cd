package main

// @title           Partner Connect API
// @version         1.0
// @description     Demo partner backend for connecting merchant accounts to a payment platform via OAuth.

// @host      localhost:8080
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"crypto/rand"
	"log"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stagepay/partner-connect/internal/adapters/driven/auth"
	"github.com/stagepay/partner-connect/internal/adapters/driven/postgres"
	redisadapter "github.com/stagepay/partner-connect/internal/adapters/driven/redis"
	"github.com/stagepay/partner-connect/internal/adapters/driven/provider"
	"github.com/stagepay/partner-connect/internal/adapters/driving/http"
	"github.com/stagepay/partner-connect/internal/config"
	"github.com/stagepay/partner-connect/internal/core/domain"
	"github.com/stagepay/partner-connect/internal/core/ports/driven"
	"github.com/stagepay/partner-connect/internal/core/services"
	"github.com/stagepay/partner-connect/internal/worker"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("partner-connect %s starting", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSec) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleSec) * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize schema (idempotent)
	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Token encryption =====
	encKey := cfg.EncryptionKeyBytes()
	if encKey == nil {
		// Ephemeral key: stored connections become unreadable after a
		// restart. Fine for the demo, refused in production by config
		// validation.
		encKey = make([]byte, 32)
		if _, err := rand.Read(encKey); err != nil {
			log.Fatalf("Failed to generate encryption key: %v", err)
		}
		log.Println("WARNING: ENCRYPTION_KEY not set, using an ephemeral key")
	}
	encryptor, err := postgres.NewSecretEncryptor(encKey)
	if err != nil {
		log.Fatalf("Failed to create secret encryptor: %v", err)
	}

	// ===== Driven adapters =====
	authAdapter := auth.NewAdapter(cfg.JWTSecret)
	providerClient := provider.NewClient(provider.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
	})

	// ===== PostgreSQL stores =====
	merchantStore := postgres.NewMerchantStore(db)
	connectionStore := postgres.NewConnectionStore(db, encryptor)

	// ===== State and session stores (Redis if available, otherwise PostgreSQL) =====
	var stateStore driven.OAuthStateStore
	var sessionStore driven.SessionStore
	if redisClient != nil {
		stateStore = redisadapter.NewOAuthStateStore(redisClient)
		sessionStore = redisadapter.NewSessionStore(redisClient)
		log.Println("Using Redis state and session stores")
	} else {
		stateStore = postgres.NewOAuthStateStoreWithTTL(db, cfg.StateTTL)
		sessionStore = postgres.NewSessionStore(db)
		log.Println("Using PostgreSQL state and session stores")
	}

	// ===== Seed demo merchants =====
	if cfg.SeedDemoMerchants {
		if err := seedDemoMerchants(ctx, merchantStore, authAdapter); err != nil {
			log.Fatalf("Failed to seed demo merchants: %v", err)
		}
	}

	// ===== Services =====
	authService := services.NewAuthService(merchantStore, sessionStore, authAdapter)
	connectService := services.NewConnectService(services.ConnectServiceConfig{
		MerchantStore:   merchantStore,
		StateStore:      stateStore,
		ConnectionStore: connectionStore,
		Provider:        providerClient,
		RedirectURI:     cfg.OAuthRedirectURI,
		StateTTL:        cfg.StateTTL,
		Logger:          slog.Default(),
	})

	// ===== Expired-state janitor =====
	janitor := worker.NewJanitor(worker.JanitorConfig{
		StateStore: stateStore,
		Logger:     slog.Default(),
	})
	janitor.Start(ctx)
	defer janitor.Stop()

	// ===== HTTP server =====
	var redisPing http.Pinger
	if redisClient != nil {
		redisPing = redisPinger{client: redisClient}
	}

	server := http.NewServer(http.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		AllowedOrigins: cfg.AllowedOrigins,
	}, connectService, authService, db, redisPing)

	log.Printf("API server starting on :%d", cfg.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// seedDemoMerchants creates the demo merchant accounts if they are missing.
func seedDemoMerchants(ctx context.Context, store driven.MerchantStore, authAdapter driven.AuthAdapter) error {
	demo := []struct {
		id, name, email, password string
	}{
		{"user1", "Steyn", "steyn.janus@merchant.example", "password"},
		{"user2", "Jurjen", "jurjen.terpstra@merchant.example", "password"},
	}

	for _, m := range demo {
		exists, err := store.Exists(ctx, m.id)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		hash, err := authAdapter.HashPassword(m.password)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := store.Save(ctx, &domain.Merchant{
			ID:           m.id,
			Email:        m.email,
			PasswordHash: hash,
			Name:         m.name,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return err
		}
		log.Printf("Seeded demo merchant %s (%s)", m.id, m.email)
	}
	return nil
}

// redisPinger adapts the redis client to the server's health check interface.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
