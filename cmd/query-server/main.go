package main

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/adaptmel/missionquery/internal/config"
	"github.com/adaptmel/missionquery/internal/engine"
	"github.com/adaptmel/missionquery/internal/llm"
	"github.com/adaptmel/missionquery/internal/observability"
	"github.com/adaptmel/missionquery/internal/store"
)

func main() {
	// Load .env for local development, real deployments use mounted
	// secrets or the environment directly
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.NewDefaultLoader().MustLoad(ctx)
	if err := cfg.ValidateWithContext(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	logger := observability.NewLogger("main")

	// Initialize Redis answer cache when enabled
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "Redis unavailable, caching disabled", map[string]interface{}{
				"addr":  cfg.Redis.Addr,
				"error": err.Error(),
			})
			rdb = nil
		}
	}

	// Initialize the reasoning service client with a circuit breaker
	orClient, err := llm.NewOpenRouterClient(llm.Config{
		APIKey:  cfg.OpenRouter.APIKey,
		Model:   cfg.OpenRouter.Model,
		BaseURL: cfg.OpenRouter.BaseURL,
		Timeout: int(cfg.OpenRouter.Timeout.Seconds()),
	})
	if err != nil {
		log.Fatal("Failed to initialize reasoning service client: ", err)
	}
	translator := llm.NewCircuitBreakerClient(orClient, "openrouter", llm.DefaultCircuitBreakerConfig)

	// Initialize the read-only project store
	projectStore := store.New(cfg.Store.DatabasePath)
	if err := projectStore.Ping(ctx); err != nil {
		log.Fatal("Failed to open project database: ", err)
	}

	// Register health checks
	healthChecker := observability.NewHealthChecker()
	healthChecker.Register("database", observability.DatabaseHealthCheck(func(ctx context.Context) error {
		return projectStore.Ping(ctx)
	}))
	if rdb != nil {
		healthChecker.Register("redis", observability.RedisHealthCheck(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}
	healthChecker.Register("translator", observability.TranslatorHealthCheck(func(ctx context.Context) error {
		state := translator.State()
		if state == gobreaker.StateOpen {
			return fmt.Errorf("circuit breaker is %s", state)
		}
		return nil
	}))
	healthChecker.Register("memory", observability.MemoryHealthCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, m.Sys
	}))

	eng := engine.New(translator, projectStore, rdb)
	eng.SetQueryOptions(engine.QueryOptions{
		Timeout:           cfg.Query.Timeout,
		CacheTTL:          cfg.Query.CacheTTL,
		MaxQuestionLength: cfg.Query.MaxQuestionLength,
	})
	eng.SetHealthChecker(healthChecker)

	router := eng.SetupRoutes()

	logger.Info(ctx, "Query server starting", map[string]interface{}{
		"port":     cfg.Server.Port,
		"model":    cfg.OpenRouter.Model,
		"database": cfg.Store.DatabasePath,
		"caching":  rdb != nil,
	})
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Error(ctx, "Failed to start server", err, nil)
		log.Fatal("Failed to start server: ", err)
	}
}
