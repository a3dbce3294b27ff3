package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// MaxTokenTTL is the furthest in the future the CDN accepts an upload expiry.
const MaxTokenTTL = time.Hour

type Config struct {
	ListenAddr string `env:"IK_LISTEN_ADDR" envDefault:":8080"`

	// Signing secrets. The private key never leaves the server.
	PrivateKey string `env:"IK_PRIVATE_KEY"`
	PublicKey  string `env:"IK_PUBLIC_KEY"`

	// TenantID is the account identifier embedded in tenant asset URLs.
	TenantID       string `env:"IK_TENANT_ID" envDefault:"v1wrbty4i"`
	TenantEndpoint string `env:"IK_URL_ENDPOINT" envDefault:"https://ik.imagekit.io/v1wrbty4i"`
	DemoEndpoint   string `env:"IK_DEMO_ENDPOINT" envDefault:"https://ik.imagekit.io/demo"`
	UploadEndpoint string `env:"IK_UPLOAD_ENDPOINT" envDefault:"https://upload.imagekit.io/api/v1/files/upload"`

	TokenTTL     time.Duration `env:"IK_TOKEN_TTL" envDefault:"30m"`
	RetryBackoff time.Duration `env:"IK_RETRY_BACKOFF" envDefault:"1s"`
	UploadFolder string        `env:"IK_UPLOAD_FOLDER"`
	MaxUploadMB  int64         `env:"IK_MAX_UPLOAD_MB" envDefault:"25"`

	// Per-IP limit on the credential endpoint.
	AuthRatePerSecond float64 `env:"IK_AUTH_RATE" envDefault:"5"`
	AuthRateBurst     int     `env:"IK_AUTH_BURST" envDefault:"10"`

	AllowedOrigins []string `env:"IK_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading from environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.PrivateKey = strings.TrimSpace(cfg.PrivateKey)
	cfg.PublicKey = strings.TrimSpace(cfg.PublicKey)
	cfg.TenantID = strings.Trim(strings.TrimSpace(cfg.TenantID), "/")
	cfg.TenantEndpoint = strings.TrimRight(strings.TrimSpace(cfg.TenantEndpoint), "/")
	cfg.DemoEndpoint = strings.TrimRight(strings.TrimSpace(cfg.DemoEndpoint), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the server misbehave. Missing
// secrets are deliberately not checked here: the credential endpoint
// reports them per request.
func (c *Config) Validate() error {
	if c.TokenTTL <= 0 || c.TokenTTL > MaxTokenTTL {
		return fmt.Errorf("IK_TOKEN_TTL must be in (0, %s], got %s", MaxTokenTTL, c.TokenTTL)
	}
	if c.RetryBackoff <= 0 {
		return errors.New("IK_RETRY_BACKOFF must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("IK_MAX_UPLOAD_MB must be positive")
	}
	for name, raw := range map[string]string{
		"IK_URL_ENDPOINT":    c.TenantEndpoint,
		"IK_DEMO_ENDPOINT":   c.DemoEndpoint,
		"IK_UPLOAD_ENDPOINT": c.UploadEndpoint,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not an absolute URL: %q", name, raw)
		}
	}
	return nil
}

// HasSecrets reports whether both signing keys are configured.
func (c *Config) HasSecrets() bool {
	return c.PrivateKey != "" && c.PublicKey != ""
}

// MaxUploadBytes is the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
