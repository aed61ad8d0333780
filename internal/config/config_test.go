package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, 14, cfg.LoanPeriodDays)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr())
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_StaffRoles(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"librarian", "admin"}, cfg.StaffRoles)

	t.Setenv("STAFF_ROLES", " circulation-desk, ,admin ")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"circulation-desk", "admin"}, cfg.StaffRoles)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	t.Run("BadPort", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "eighty")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "HTTP_PORT")
	})

	t.Run("BadDuration", func(t *testing.T) {
		t.Setenv("REQUEST_TIMEOUT", "soon")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "REQUEST_TIMEOUT")
	})

	t.Run("BadRate", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_RPS", "fast")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "RATE_LIMIT_RPS")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:       8080,
			StorageDriver:  "memory",
			DBMaxConns:     4,
			DBMinConns:     1,
			JWTSecret:      testSecret,
			AccessTokenTTL: time.Hour,
			BcryptCost:     10,
			LoanPeriodDays: 14,
			Timezone:       "Africa/Kampala",
			RateLimitRPS:   1,
			RateLimitBurst: 1,
			LogLevel:       "debug",
			LogFormat:      "text",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		message string
	}{
		{"Port", func(c *Config) { c.HTTPPort = 0 }, "HTTP_PORT"},
		{"Driver", func(c *Config) { c.StorageDriver = "mysql" }, "STORAGE_DRIVER"},
		{"DatabaseURL", func(c *Config) { c.StorageDriver = "postgres"; c.DatabaseURL = "" }, "DATABASE_URL"},
		{"Pool", func(c *Config) { c.DBMinConns = 9 }, "DB_MIN_CONNS"},
		{"LoanPeriod", func(c *Config) { c.LoanPeriodDays = 0 }, "LOAN_PERIOD_DAYS"},
		{"Timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "LIBRARY_TIMEZONE"},
		{"RateLimit", func(c *Config) { c.RateLimitBurst = 0 }, "RATE_LIMIT"},
		{"LogLevel", func(c *Config) { c.LogLevel = "trace" }, "LOG_LEVEL"},
		{"LogFormat", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"Secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"TokenTTL", func(c *Config) { c.AccessTokenTTL = 0 }, "ACCESS_TOKEN_TTL"},
		{"BcryptCost", func(c *Config) { c.BcryptCost = 3 }, "BCRYPT_COST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.message)
		})
	}
}
