package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	// Register the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/target/taskdesk/config"
	"github.com/target/taskdesk/internal/migrate"
)

const connectTimeout = 5 * time.Second

// ConnectDB opens the Postgres pool used by the postgres credential backend
// and the migrate command, and verifies it answers.
func ConnectDB(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A CLI process needs only a couple of connections.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		return nil, errors.Join(fmt.Errorf("ping database %s:%d: %w", cfg.Host, cfg.Port, pingErr), db.Close())
	}

	if logger != nil {
		logger.DebugContext(ctx, "database connected", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name)
	}
	return db, nil
}

// ConnectRedis builds the client for the redis credential backend and verifies it answers.
//
//nolint:ireturn // sentinel and direct clients share redis.UniversalClient.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	client, addr, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		return nil, errors.Join(fmt.Errorf("ping redis %s: %w", addr, pingErr), client.Close())
	}

	if logger != nil {
		logger.DebugContext(ctx, "redis connected", "addr", addr)
	}
	return client, nil
}

// newRedisClient returns the client and a credential-free description of where it points.
//
//nolint:ireturn // sentinel and direct clients share redis.UniversalClient.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	if cfg.UsesSentinel() {
		client := redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.SentinelMasterName,
			SentinelAddrs:    cfg.SentinelNodes,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
			DB:               cfg.DB,
		})
		return client, "sentinel:" + cfg.SentinelMasterName, nil
	}

	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, "", errors.New("redis credential backend requires REDIS_URI")
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return redis.NewClient(&redis.Options{Addr: uri, Password: cfg.Password, DB: cfg.DB}), uri, nil
	}

	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, "", fmt.Errorf("parse redis url: %w", err)
	}
	if opt.Password == "" {
		opt.Password = cfg.Password
	}
	return redis.NewClient(opt), opt.Addr, nil
}

// RunMigrations applies pending credential-table migrations and returns how many ran.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) (int, error) {
	applied, err := migrate.New(db, logger).Up(ctx)
	if err != nil {
		return applied, fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "applied", applied)
	}

	return applied, nil
}
