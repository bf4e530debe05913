package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"contas/internal/api"
	"contas/internal/cache"
	"contas/internal/cli"
	"contas/internal/config"
	apphttp "contas/internal/http"
	applog "contas/internal/log"
	"contas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting contas server")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	store := cli.InitBackend(ctx, logger, cfg)
	defer store.Close()

	bills := services.NewBillService(store.Backend)
	income := services.NewIncomeService(store.Backend, bills, time.Now)

	listCache, redisClient := initListCache(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:       ":" + cfg.Port,
		CORSOrigin: cfg.CORSOrigin,
		CacheTTL:   cfg.CacheTTL,
		ListCache:  listCache,
		Logger: applog.New(applog.Config{
			Level:     applog.ParseLevel(cfg.LogLevel),
			Component: applog.ComponentHTTP,
		}),
	}, bills, income, store.Backend)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Server configured",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"cache", cacheKind(redisClient))
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}

// initListCache connects to Redis when REDIS_ADDR is set. A nil cache makes
// the server use its in-process LRU.
func initListCache(ctx context.Context, cfg *config.Config) (cache.Cache[[]api.Bill], *redis.Client) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		applog.New(applog.Config{Component: applog.ComponentCache}).
			Warn("Redis unavailable, using in-process cache", applog.FieldError, err.Error(), "addr", cfg.RedisAddr)
		return nil, nil
	}
	return cache.NewRedisCache[[]api.Bill](client, "contas:list:", cfg.CacheTTL), client
}

func cacheKind(c *redis.Client) string {
	if c != nil {
		return "redis"
	}
	return "memory"
}
