package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/tradeezy-assistant/internal/chathistory"
	appconfig "github.com/wolfman30/tradeezy-assistant/internal/config"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildDatabase opens the pgx pool and a database/sql handle sharing it.
// Both are nil when DATABASE_URL is unset.
func BuildDatabase(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, *sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("DATABASE_URL not set; using in-memory stores")
		return nil, nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, stdlib.OpenDBFromPool(pool), nil
}

// historyMaxTurns caps a Redis conversation list.
const historyMaxTurns = 200

// BuildHistoryStore picks the conversation store for HISTORY_BACKEND. The
// postgres and memory stores also serve the portal listing.
func BuildHistoryStore(cfg *appconfig.Config, sqlDB *sql.DB, redisClient *redis.Client, logger *logging.Logger) chathistory.Store {
	switch cfg.HistoryBackend {
	case "redis":
		if redisClient != nil {
			logger.Info("chat history backed by redis", "ttl", cfg.HistoryTTL.String())
			return chathistory.NewRedisStore(redisClient, cfg.HistoryTTL, historyMaxTurns)
		}
		logger.Warn("HISTORY_BACKEND=redis but redis unavailable; falling back")
	case "memory":
		return chathistory.NewMemoryStore()
	}
	if sqlDB != nil {
		return chathistory.NewPostgresStore(sqlDB)
	}
	logger.Warn("no database for chat history; using in-memory store")
	return chathistory.NewMemoryStore()
}
