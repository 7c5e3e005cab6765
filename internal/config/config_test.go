package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("WODAGOAT_DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 200, cfg.LookupRPM)
	assert.Equal(t, time.Hour, cfg.LookupCacheTTL)
	assert.Empty(t, cfg.AdminAPITokens)
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("WODAGOAT_DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	_, err := Load()
	assert.ErrorContains(t, err, "mysql")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://localhost/wodagoat")
	t.Setenv("ADMIN_API_TOKENS", "abc:user-1, def:user-2 ,")
	t.Setenv("LOOKUP_TIMEOUT_SECONDS", "2")
	t.Setenv("LOOKUP_RPM", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, []string{"abc:user-1", "def:user-2"}, cfg.AdminAPITokens)
	assert.Equal(t, 2*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 200, cfg.LookupRPM)
}

func TestIsProduction(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())

	cfg.Environment = "development"
	assert.False(t, cfg.IsProduction())
}
