// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Backend selects which persistence implementation set the process wires up.
type Backend string

const (
	// BackendMemory keeps all state in process memory. Intended for local
	// development and tests; nothing survives a restart.
	BackendMemory Backend = "memory"

	// BackendPostgres persists through pgx against the DATABASE_URL database.
	BackendPostgres Backend = "postgres"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// StorageBackend selects the persistence implementation.
	// Defaults to "postgres". Valid values: memory, postgres.
	StorageBackend Backend

	// DatabaseURL is the Postgres connection string.
	// Required when StorageBackend is "postgres".
	DatabaseURL string

	// AMQPURL is the RabbitMQ connection string for the trip event publisher.
	// Optional; when unset, events are written to the structured log instead.
	AMQPURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error for an unknown backend or for required variables that are
// not set.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		StorageBackend: Backend(getEnv("STORAGE_BACKEND", string(BackendPostgres))),
		AMQPURL:        os.Getenv("AMQP_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendPostgres:
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_BACKEND %q: must be %q or %q",
			cfg.StorageBackend, BackendMemory, BackendPostgres)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StorageBackend == BackendPostgres && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("required environment variables not set: DATABASE_URL")
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
