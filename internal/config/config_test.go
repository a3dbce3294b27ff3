package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IK_PRIVATE_KEY", "")
	t.Setenv("IK_PUBLIC_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, time.Second, cfg.RetryBackoff)
	assert.Equal(t, "https://ik.imagekit.io/demo", cfg.DemoEndpoint)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.HasSecrets())
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IK_PRIVATE_KEY", "  private_abc  ")
	t.Setenv("IK_PUBLIC_KEY", "public_xyz")
	t.Setenv("IK_TENANT_ID", "/acct123/")
	t.Setenv("IK_URL_ENDPOINT", "https://cdn.example/acct123/")
	t.Setenv("IK_TOKEN_TTL", "90s")
	t.Setenv("IK_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "private_abc", cfg.PrivateKey)
	assert.Equal(t, "acct123", cfg.TenantID)
	assert.Equal(t, "https://cdn.example/acct123", cfg.TenantEndpoint)
	assert.Equal(t, 90*time.Second, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.HasSecrets())
}

func TestLoadRejectsTTLBeyondOneHour(t *testing.T) {
	t.Setenv("IK_TOKEN_TTL", "2h")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IK_TOKEN_TTL")
}

func TestValidateRejectsRelativeEndpoint(t *testing.T) {
	cfg := &Config{
		TokenTTL:       time.Minute,
		RetryBackoff:   time.Second,
		MaxUploadMB:    1,
		DemoEndpoint:   "/demo",
		TenantEndpoint: "https://cdn.example/acct",
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IK_DEMO_ENDPOINT")
}

func TestValidateRejectsZeroTTL(t *testing.T) {
	cfg := &Config{MaxUploadMB: 1}
	assert.Error(t, cfg.Validate())
}
