package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/config"
	"github.com/guttosm/spimexpulse/internal/api"
	"github.com/guttosm/spimexpulse/internal/cache"
	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/service"
	"github.com/guttosm/spimexpulse/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Initializes the repository layer (TradingResultsRepository).
//   - Builds the response cache (Redis when configured, in-process otherwise).
//   - Creates the service and HTTP handler layers.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (DB connection, cache).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	// Load global configuration
	cfg := config.AppConfig

	hour, minute, err := cache.ParseResetAt(cfg.Cache.ResetAt)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CACHE_RESET_AT: %w", err)
	}

	// Connect to PostgreSQL
	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	// Initialize repository layer (responsible for DB access)
	repo := storage.NewTradingResultsRepository(db)

	// Response cache, expiring daily at the publication time
	c := newCache(cfg.Cache)

	// Initialize service layer (business logic)
	svc := service.NewTradingService(repo, c, service.ResetTime{Hour: hour, Minute: minute})

	// Initialize HTTP handler layer (business logic to HTTP mapping)
	handler := api.NewHandler(svc)

	// Setup Gin router with routes
	router := api.NewRouter(handler)

	// Register health and readiness probes
	healthHandler := api.NewHealthHandler(db.PingContext)
	healthHandler.Register(router)

	// Cleanup resources on shutdown
	cleanup := func() {
		_ = c.Close()
		_ = db.Close()
	}

	return router, cleanup, nil
}

// newCache connects to Redis when an address is configured. An unreachable
// Redis is not fatal: the API falls back to the in-process cache.
func newCache(cfg config.CacheConfig) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.L().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-process cache")
		return cache.NewMemory()
	}
	logger.L().Info().Str("addr", cfg.RedisAddr).Msg("redis cache connected")
	return r
}
