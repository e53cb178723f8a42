package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		DatabaseURL:      "postgres://localhost:5432/auth",
		DBMaxConns:       10,
		DBMinConns:       2,
		TokenSecret:      "c2VjcmV0LXNlY3JldC1zZWNyZXQtc2VjcmV0LXNlY3JldA==",
		TokenTTL:         12 * time.Hour,
		RateLimitRPM:     100,
		AuthRateLimitRPM: 10,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing secret", mutate: func(c *Config) { c.TokenSecret = "" }},
		{name: "whitespace secret", mutate: func(c *Config) { c.TokenSecret = "   " }},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }},
		{name: "empty port", mutate: func(c *Config) { c.ServerPort = "" }},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }},
		{name: "negative ttl", mutate: func(c *Config) { c.TokenTTL = -time.Hour }},
		{name: "zero request timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }},
		{name: "min conns above max", mutate: func(c *Config) { c.DBMinConns = 20 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "c2VjcmV0LXNlY3JldC1zZWNyZXQtc2VjcmV0LXNlY3JldA==")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/auth")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.AuthRateLimitRPM)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/auth")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "c2VjcmV0LXNlY3JldC1zZWNyZXQtc2VjcmV0LXNlY3JldA==")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/auth")
	t.Setenv("TOKEN_TTL", "45m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AUTH_RATE_LIMIT_RPM", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 25, cfg.AuthRateLimitRPM)
}
