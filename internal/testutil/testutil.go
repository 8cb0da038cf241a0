package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	// Register the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/target/taskdesk/config"
	"github.com/target/taskdesk/internal/migrate"
)

// localTestDBPort is where the compose test profile publishes Postgres.
const localTestDBPort = 55432

// DBSettings reads the TEST_DB_* variables. CI sets TEST_DB_PORT=5432.
func DBSettings(t testing.TB) config.DBConfig {
	t.Helper()
	var cfg config.DBConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "TEST_DB_"}); err != nil {
		t.Fatalf("parse TEST_DB_ settings: %v", err)
	}
	if _, ok := os.LookupEnv("TEST_DB_PORT"); !ok {
		cfg.Port = localTestDBPort
	}
	return cfg
}

// EphemeralDB returns a connection scoped to a fresh schema with every
// migration applied. The schema is dropped when the test ends. The test is
// skipped when Postgres is unreachable unless TEST_REQUIRE_DB is set.
func EphemeralDB(t testing.TB) *sql.DB {
	t.Helper()
	cfg := DBSettings(t)

	admin := open(t, cfg.DSN())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := admin.PingContext(ctx); err != nil {
		closeQuietly(t, "admin db", admin)
		unavailable(t, requireDB(), "test database not available: %v", err)
	}

	schema := schemaName()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		closeQuietly(t, "admin db", admin)
		t.Fatalf("create schema %s: %v", schema, err)
	}

	u, err := url.Parse(cfg.DSN())
	if err != nil {
		closeQuietly(t, "admin db", admin)
		t.Fatalf("parse dsn: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	db := open(t, u.String())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		closeQuietly(t, "schema db", db)
		if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		closeQuietly(t, "admin db", admin)
	})

	if err := migrate.Run(ctx, db); err != nil {
		t.Fatalf("migrate schema %s: %v", schema, err)
	}
	return db
}

// RedisClient returns a client on a flushed test database. Callers close it.
// The address comes from REDIS_ADDR (default localhost:56379) and the index
// from TEST_REDIS_DB (default 1). The test is skipped when Redis is
// unreachable unless TEST_REQUIRE_REDIS is set.
func RedisClient(t testing.TB) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:56379"
	}
	index := 1
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			t.Fatalf("invalid TEST_REDIS_DB=%q", v)
		}
		index = n
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: index})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		closeQuietly(t, "redis client", client)
		unavailable(t, requireRedis(), "redis not available at %s: %v", addr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis db %d: %v", index, err)
	}
	return client
}

func open(t testing.TB, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return db
}

func unavailable(t testing.TB, required bool, format string, args ...any) {
	t.Helper()
	if required {
		t.Fatalf(format, args...)
	}
	t.Skipf(format, args...)
}

func schemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "t_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "t_" + hex.EncodeToString(b)
}

func closeQuietly(t testing.TB, name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		t.Logf("close %s: %v", name, err)
	}
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }
