// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	CORSOrigins []string

	// MaxUploadBytes caps request bodies. Defaults to 10 MiB.
	MaxUploadBytes int64

	// SeedDir holds canadian_cities.csv and event_code_definitions.csv.
	// Defaults to "data/seed".
	SeedDir string

	// ReleaseCodes open a trip; PlacementCodes close one.
	// Default to ["W"] and ["Z"].
	ReleaseCodes   []string
	PlacementCodes []string

	// Workers bounds the per-equipment reconstruction fan-out. Defaults to 4.
	Workers int
}

const defaultMaxUploadBytes = 10 << 20

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// numeric variables that do not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		SeedDir:        getEnv("SEED_DIR", "data/seed"),
		ReleaseCodes:   splitCSV(getEnv("RELEASE_CODES", "W")),
		PlacementCodes: splitCSV(getEnv("PLACEMENT_CODES", "Z")),
	}

	var missing []string
	var errs []error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	maxBytes, err := getPositiveInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.MaxUploadBytes = int64(maxBytes)

	cfg.Workers, err = getPositiveInt("WORKERS", 4)
	if err != nil {
		errs = append(errs, err)
	}

	if len(missing) > 0 {
		errs = append([]error{fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))}, errs...)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
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

// getPositiveInt is getEnv for integers that must be at least 1.
func getPositiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
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
