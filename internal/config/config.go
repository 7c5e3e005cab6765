// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/curate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Store
	StoreDriver    string // postgres, sqlite
	SQLitePath     string
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Reference lookup
	WikipediaBaseURL   string
	WikipediaUserAgent string
	LookupTimeout      time.Duration
	LookupRPM          int
	LookupCacheTTL     time.Duration

	// Enrichment
	RulesFile string // optional override of the embedded extraction rules

	// Caller identity
	AdminAPITokens []string // "token:user_id"
	CuratorUserID  string   // identity the CLI acts as

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	driver := strings.ToLower(envOr("STORE_DRIVER", DriverPostgres))
	dbURL := envOr("DATABASE_URL", envOr("WODAGOAT_DATABASE_URL", ""))

	switch driver {
	case DriverPostgres:
		if dbURL == "" {
			return nil, fmt.Errorf("DATABASE_URL or WODAGOAT_DATABASE_URL must be set when STORE_DRIVER=postgres")
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", driver, DriverPostgres, DriverSQLite)
	}

	return &Config{
		StoreDriver:    driver,
		SQLitePath:     envOr("SQLITE_PATH", "data/wodagoat.db"),
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		WikipediaBaseURL:   envOr("WIKIPEDIA_BASE_URL", "https://en.wikipedia.org/api/rest_v1"),
		WikipediaUserAgent: envOr("WIKIPEDIA_USER_AGENT", ""),
		LookupTimeout:      time.Duration(envInt("LOOKUP_TIMEOUT_SECONDS", 5)) * time.Second,
		LookupRPM:          envInt("LOOKUP_RPM", 200),
		LookupCacheTTL:     time.Duration(envInt("LOOKUP_CACHE_TTL_MINUTES", 60)) * time.Minute,

		RulesFile: envOr("ENRICH_RULES_FILE", ""),

		AdminAPITokens: envList("ADMIN_API_TOKENS", nil),
		CuratorUserID:  envOr("CURATOR_USER_ID", ""),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
