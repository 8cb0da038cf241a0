package config

import (
	"log/slog"
	"strings"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LogConfig controls structured logging. Logs go to stderr so command output stays parseable.
type LogConfig struct {
	Level  string    `env:"LOG_LEVEL"`
	Format LogFormat `env:"LOG_FORMAT"`
}

// Sanitize fills in defaults: text at debug level in dev mode, JSON at warn otherwise.
func (c *LogConfig) Sanitize(isDev bool) {
	c.Format = LogFormat(strings.ToLower(strings.TrimSpace(string(c.Format))))
	if c.Format != LogFormatJSON && c.Format != LogFormatText {
		c.Format = LogFormatJSON
		if isDev {
			c.Format = LogFormatText
		}
	}
	if _, ok := parseLevel(c.Level); !ok {
		c.Level = "warn"
		if isDev {
			c.Level = "debug"
		}
	}
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
}

// SlogLevel returns the configured level, defaulting to warn.
func (c LogConfig) SlogLevel() slog.Level {
	if lvl, ok := parseLevel(c.Level); ok {
		return lvl
	}
	return slog.LevelWarn
}

func parseLevel(v string) (slog.Level, bool) {
	var lvl slog.Level
	if strings.TrimSpace(v) == "" {
		return lvl, false
	}
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		return lvl, false
	}
	return lvl, true
}
