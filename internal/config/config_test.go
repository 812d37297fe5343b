package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "APP_ENV", "JWT_SECRET_KEY", "JWT_ACCESS_TOKEN_TTL", "MAIL_PORT", "RATE_LIMIT_PER_MINUTE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.VerificationTokenTTL)
	assert.Equal(t, time.Hour, cfg.PasswordResetTTL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 10, cfg.RateLimit.PerMinute)
	assert.True(t, cfg.GeneratedSecret)
	assert.Len(t, cfg.JWTSecret, 32)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "s3cr3t")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "45m")
	t.Setenv("MAIL_SERVER", "smtp.example.com")
	t.Setenv("MAIL_PORT", "2525")
	t.Setenv("MAIL_USE_TLS", "false")
	t.Setenv("CORS_TRUSTED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "20")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.GeneratedSecret)
	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
	assert.Equal(t, 45*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Server)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.UseTLS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.TrustedOrigins)
	assert.Equal(t, 20, cfg.RateLimit.PerMinute)
}

func TestProductionRequiresStrongSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	unsetenv(t, "JWT_SECRET_KEY")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET_KEY", "too-short")
	_, err = Load()
	require.ErrorContains(t, err, "at least 32 bytes")

	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
}

func TestValidateRanges(t *testing.T) {
	cfg := Config{
		JWTSecret:            "x",
		AccessTokenTTL:       time.Minute,
		VerificationTokenTTL: time.Minute,
		PasswordResetTTL:     time.Minute,
		BcryptCost:           2,
		SnowflakeNode:        2048,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "BCRYPT_COST")
	assert.ErrorContains(t, err, "SNOWFLAKE_NODE")
}
