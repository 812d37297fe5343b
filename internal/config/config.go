// Package config parses the application settings from the environment.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const minSecretBytes = 32

type SMTP struct {
	Server   string `env:"SERVER"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Sender   string `env:"SENDER" envDefault:"TaskBite <no-reply@taskbite.local>"`
	UseTLS   bool   `env:"USE_TLS" envDefault:"true"`
}

type RateLimit struct {
	Enabled   bool `env:"ENABLED" envDefault:"true"`
	PerMinute int  `env:"PER_MINUTE" envDefault:"10"`
	Burst     int  `env:"BURST" envDefault:"10"`
}

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8431"`
	// BaseURL prefixes the links placed in outgoing mail.
	BaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8431"`

	JWTSecret            string        `env:"JWT_SECRET_KEY"`
	JWTIssuer            string        `env:"JWT_ISSUER" envDefault:"taskbite"`
	AccessTokenTTL       time.Duration `env:"JWT_ACCESS_TOKEN_TTL" envDefault:"30m"`
	VerificationTokenTTL time.Duration `env:"EMAIL_VERIFICATION_TTL" envDefault:"1h"`
	PasswordResetTTL     time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"1h"`

	BcryptCost    int   `env:"BCRYPT_COST" envDefault:"12"`
	SnowflakeNode int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`

	SMTP           SMTP      `envPrefix:"MAIL_"`
	TrustedOrigins []string  `env:"CORS_TRUSTED_ORIGINS" envSeparator:","`
	RateLimit      RateLimit `envPrefix:"RATE_LIMIT_"`

	// set by Load when JWTSecret was empty outside production
	GeneratedSecret bool
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" && !cfg.Production() {
		secret := make([]byte, minSecretBytes)
		if _, err := rand.Read(secret); err != nil {
			return Config{}, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = string(secret)
		cfg.GeneratedSecret = true
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required in production"))
	} else if c.Production() && len(c.JWTSecret) < minSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET_KEY must be at least %d bytes", minSecretBytes))
	}
	if c.AccessTokenTTL <= 0 || c.VerificationTokenTTL <= 0 || c.PasswordResetTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d out of range 4..31", c.BcryptCost))
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		errs = append(errs, fmt.Errorf("SNOWFLAKE_NODE %d out of range 0..1023", c.SnowflakeNode))
	}
	if c.RateLimit.Enabled && c.RateLimit.PerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}
