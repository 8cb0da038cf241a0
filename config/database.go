package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"taskdesk"`
	Password string `env:"PASSWORD"                envDefault:"taskdesk"`
	Name     string `env:"NAME"                    envDefault:"taskdesk"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart applies the credentials migration when the postgres backend is opened.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN renders the pgx connection string. Credentials are escaped, so passwords
// may contain any character.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig contains Redis configuration. URI is either a redis:// URL or a
// bare host:port. Setting SentinelMasterName switches to a sentinel-backed client.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
}

// UsesSentinel reports whether the client should discover the primary through sentinels.
func (c RedisConfig) UsesSentinel() bool {
	return strings.TrimSpace(c.SentinelMasterName) != "" && len(c.SentinelNodes) > 0
}
