package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Listen for Ctrl+C and SIGTERM
	"syscall"   // SIGTERM
	"time"      // Shutdown grace period

	"figo_wallet/internal/api"      // Custom package for API handlers
	"figo_wallet/internal/auth"     // Authentication strategies
	"figo_wallet/internal/config"   // Custom package for configuration
	"figo_wallet/internal/db"       // Database connection and migration
	"figo_wallet/internal/store"    // Credential store
	"figo_wallet/internal/transfer" // Transfer engine

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg.DSN(), cfg.IsProd)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb, log); err != nil {
		log.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	// Test Redis connection
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}

	wallets := store.NewWalletStore(gdb, cfg.BcryptCost)
	svc, err := auth.NewService(wallets, cfg.BcryptCost, log)
	if err != nil {
		log.Fatalf("failed to set up auth service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var strategy auth.Strategy
	switch cfg.AuthStrategy {
	case config.StrategySession:
		sessions := auth.NewRedisSessionStore(redisClient)
		strategy = auth.NewSessionStrategy(sessions, wallets, auth.SessionOptions{
			CookieName:      cfg.SessionName,
			MaxAge:          cfg.SessionMaxAge,
			IdleTTL:         cfg.SessionStoreTTL,
			AbsoluteTimeout: cfg.SessionAbsoluteTimeout,
			Secure:          cfg.IsProd,
		}, log)
		go auth.RunSweeper(ctx, sessions, cfg.SessionSweepInterval, log) // Purge expired sessions
	default:
		strategy = auth.NewTokenStrategy(cfg.JWTSecret, cfg.JWTExpires, wallets)
	}
	log.WithField("strategy", cfg.AuthStrategy).Info("Authentication configured")

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := api.NewRouter(api.Deps{
		Wallets:           wallets,
		Engine:            transfer.NewEngine(wallets, cfg.TransferTimeout, log),
		Auth:              svc,
		Strategy:          strategy,
		Redis:             redisClient,
		Log:               log,
		CacheTTL:          cfg.CacheTTL,
		MinTransferAmount: cfg.MinTransferAmount,
		TrustedProxies:    []string{"127.0.0.1"},
	})
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server running on " + cfg.AppPort) // Log server start
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until we receive a stop signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	cancel() // Stop the session sweeper

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	log.Info("Server exited")
}
