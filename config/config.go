package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - api.go: task API endpoint configuration
//   - credentials.go: where the session is persisted
//   - database.go: Postgres and Redis connection settings for the shared backends
//   - log.go: logging configuration
type AppConfig struct {
	// IsDev enables human-friendly defaults (text logs, debug level).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Task API configuration
	API APIConfig

	// Session persistence
	Credentials CredentialsConfig

	// Connection settings for the redis and postgres credential backends
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Logging configuration
	Log LogConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()

	c.API.Sanitize()
	c.Credentials.Sanitize()
	c.Log.Sanitize(c.IsDev)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// NeedsPostgres reports whether the configured backend requires a database connection.
func (c *AppConfig) NeedsPostgres() bool {
	return c.Credentials.Backend == CredentialBackendPostgres
}

// NeedsRedis reports whether the configured backend requires a Redis connection.
func (c *AppConfig) NeedsRedis() bool {
	return c.Credentials.Backend == CredentialBackendRedis
}
