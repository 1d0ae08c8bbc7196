package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "jwt:\n  secret: s3cret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(20), cfg.Stripe.PlatformFeePercent)
	assert.Equal(t, "session", cfg.JWT.CookieName)
	assert.Equal(t, "webhook_events", cfg.Queue.WebhookQueue)
	assert.Equal(t, 168, cfg.Cron.PendingOrderTTLHours)
}

func TestLoad_PrefersLocalConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "jwt:\n  secret: from-main\n")
	writeConfig(t, dir, "config.local.yaml", "jwt:\n  secret: from-local\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-local", cfg.JWT.Secret)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "jwt:\n  secret: file\nstripe:\n  platform_fee_percent: 10\n")

	t.Setenv("STRIPE_PLATFORM_FEE_PERCENT", "15")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(15), cfg.Stripe.PlatformFeePercent)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{JWT: JWTConfig{Secret: "x"}, Stripe: StripeConfig{PlatformFeePercent: 20}}, false},
		{"empty secret", Config{}, true},
		{"fee above 100", Config{JWT: JWTConfig{Secret: "x"}, Stripe: StripeConfig{PlatformFeePercent: 101}}, true},
		{"unknown driver", Config{JWT: JWTConfig{Secret: "x"}, Database: DatabaseConfig{Driver: "oracle"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
