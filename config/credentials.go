package config

import (
	"fmt"
	"strings"
	"time"
)

// CredentialBackend selects where the session token and user are persisted.
type CredentialBackend string

const (
	// CredentialBackendFile stores credentials in a 0600 JSON file (default).
	CredentialBackendFile CredentialBackend = "file"
	// CredentialBackendMemory keeps credentials for the lifetime of the process only.
	CredentialBackendMemory CredentialBackend = "memory"
	// CredentialBackendRedis shares credentials through Redis.
	CredentialBackendRedis CredentialBackend = "redis"
	// CredentialBackendPostgres stores credentials in the credentials table.
	CredentialBackendPostgres CredentialBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for CredentialBackend.
func (b *CredentialBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch CredentialBackend(v) {
	case CredentialBackendFile, CredentialBackendMemory, CredentialBackendRedis, CredentialBackendPostgres:
		*b = CredentialBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid CredentialBackend: %q (valid options: file, memory, redis, postgres)", v)
	}
}

// CredentialsConfig controls session persistence.
type CredentialsConfig struct {
	Backend CredentialBackend `env:"TASKDESK_CREDENTIALS_BACKEND" envDefault:"file"`

	// FilePath overrides the default <user config dir>/taskdesk/credentials.json.
	FilePath string `env:"TASKDESK_CREDENTIALS_FILE"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `env:"TASKDESK_CREDENTIALS_PREFIX" envDefault:"taskdesk:cred:"`

	// TTL expires Redis-stored credentials; zero keeps them until logout.
	TTL time.Duration `env:"TASKDESK_CREDENTIALS_TTL" envDefault:"0s"`

	// Profile scopes Postgres rows so several operators can share a database.
	Profile string `env:"TASKDESK_PROFILE" envDefault:"default"`
}

// Sanitize normalises credential settings.
func (c *CredentialsConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = CredentialBackendFile
	}
	c.FilePath = strings.TrimSpace(c.FilePath)
	if c.TTL < 0 {
		c.TTL = 0
	}
	if c.Profile = strings.TrimSpace(c.Profile); c.Profile == "" {
		c.Profile = "default"
	}
}
