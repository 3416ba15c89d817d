// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Server holds configuration for the crewd membership server.
// Values are populated by LoadServer from environment variables.
type Server struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string
}

// Client holds configuration for the crew client.
// Values are populated by LoadClient from environment variables.
type Client struct {
	// ServerURL is the base URL of the crewd server. Defaults to
	// "http://localhost:8080".
	ServerURL string

	// SessionPath is the path of the local SQLite file holding the persisted
	// session slot. Defaults to "crewlink/crew-session.db" under the user
	// config directory.
	SessionPath string

	// LogLevel controls the minimum log level. Defaults to "info".
	LogLevel string

	// PushInterval is the fixed cadence for outbound location pushes.
	// Defaults to 15s. Lowering it trades battery for freshness.
	PushInterval time.Duration

	// SubscribeTimeout is how long to wait for the first member snapshot
	// before the sync core reports the connection as degraded. Defaults to 10s.
	SubscribeTimeout time.Duration
}

// LoadServer reads server configuration from environment variables.
// Returns an error listing any required variables that are not set.
func LoadServer() (Server, error) {
	cfg := Server{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Server{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// LoadClient reads client configuration from environment variables.
// All client settings have defaults, so LoadClient only fails when a value
// cannot be parsed or the default session path cannot be resolved.
func LoadClient() (Client, error) {
	cfg := Client{
		ServerURL: strings.TrimRight(getEnv("CREWD_URL", "http://localhost:8080"), "/"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}

	cfg.SessionPath = os.Getenv("CREW_SESSION_PATH")
	if cfg.SessionPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Client{}, fmt.Errorf("resolve default session path: %w", err)
		}
		cfg.SessionPath = filepath.Join(dir, "crewlink", "crew-session.db")
	}

	var err error
	if cfg.PushInterval, err = getDuration("PUSH_INTERVAL", 15*time.Second); err != nil {
		return Client{}, err
	}
	if cfg.SubscribeTimeout, err = getDuration("SUBSCRIBE_TIMEOUT", 10*time.Second); err != nil {
		return Client{}, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses the environment variable named by key as a time.Duration,
// returning fallback when the variable is not set.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
