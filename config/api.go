package config

import (
	"strings"
	"time"
)

const (
	defaultAPITimeout = 15 * time.Second
	maxAPITimeout     = 5 * time.Minute
)

// APIConfig contains settings for the task REST API client.
type APIConfig struct {
	// BaseURL is the root of the task API (e.g., "https://tasks.example.com/api").
	BaseURL string `env:"TASKDESK_API_BASE_URL" envDefault:"http://localhost:3000"`

	// Timeout bounds each HTTP request. The core never applies its own timeouts.
	Timeout time.Duration `env:"TASKDESK_API_TIMEOUT" envDefault:"15s"`

	// UserAgent is sent on every request.
	UserAgent string `env:"TASKDESK_USER_AGENT" envDefault:"taskdesk"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = defaultAPITimeout
	}
	if a.Timeout > maxAPITimeout {
		a.Timeout = maxAPITimeout
	}
	if a.UserAgent = strings.TrimSpace(a.UserAgent); a.UserAgent == "" {
		a.UserAgent = "taskdesk"
	}
}
