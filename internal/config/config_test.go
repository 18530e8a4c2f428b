package config

import (
	"testing"
	"time"

	"ircgateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"LISTEN_ADDR", "SERVER_NAME", "LOG_LEVEL", "AUTH_MODE",
	"OAUTH_CONSUMER_KEY", "OAUTH_CONSUMER_SECRET", "API_BASE_URL", "OAUTH_BASE_URL",
	"HTTP_TIMEOUT", "ENABLE_COMPRESSION", "CREDENTIAL_KEY", "CREDENTIAL_BACKEND",
	"CONFIG_DIR", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "REJECT_DELAY",
}

// clearEnv blanks every key so defaults apply; t.Setenv restores them
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		setEnv       bool
		envValue     string
		expected     string
	}{
		{
			name:         "env variable set",
			key:          "TEST_KEY",
			defaultValue: "default",
			setEnv:       true,
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "env variable not set",
			key:          "TEST_KEY_NOT_SET",
			defaultValue: "default",
			setEnv:       false,
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			}

			result := getEnv(tt.key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
		},
	}

	dsn := cfg.DSN()
	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dsn)
}

func TestLoad_WithDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OAUTH_CONSUMER_KEY", "ck")
	t.Setenv("OAUTH_CONSUMER_SECRET", "cs")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:16668", cfg.ListenAddr)
	assert.Equal(t, "ircgateway", cfg.ServerName)
	assert.Equal(t, domain.AuthModeOAuth, cfg.AuthMode)
	assert.Equal(t, "https://api.twitter.com/1.1", cfg.APIBaseURL)
	assert.Equal(t, "https://api.twitter.com/oauth", cfg.OAuthBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.EnableCompression)
	assert.Equal(t, domain.KeyScreenName, cfg.CredentialKey)
	assert.Equal(t, BackendFile, cfg.CredentialBackend)
	assert.Equal(t, "./configs", cfg.ConfigDir)
	assert.Equal(t, 10*time.Second, cfg.RejectDelay)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "ircgateway", cfg.Database.Name)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_MODE", "xauth")
	t.Setenv("OAUTH_CONSUMER_KEY", "ck")
	t.Setenv("OAUTH_CONSUMER_SECRET", "cs")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("ENABLE_COMPRESSION", "true")
	t.Setenv("CREDENTIAL_KEY", "user_id")
	t.Setenv("CREDENTIAL_BACKEND", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("REJECT_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, domain.AuthModeXAuth, cfg.AuthMode)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.EnableCompression)
	assert.Equal(t, domain.KeyUserID, cfg.CredentialKey)
	assert.Equal(t, BackendPostgres, cfg.CredentialBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.RejectDelay)
}

func TestLoad_PasswordModeNeedsNoConsumer(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_MODE", "password")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, domain.AuthModePassword, cfg.AuthMode)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{
			name:     "missing consumer key",
			env:      map[string]string{"OAUTH_CONSUMER_SECRET": "cs"},
			expected: "OAUTH_CONSUMER_KEY",
		},
		{
			name:     "missing consumer secret",
			env:      map[string]string{"OAUTH_CONSUMER_KEY": "ck"},
			expected: "OAUTH_CONSUMER_SECRET",
		},
		{
			name:     "unknown auth mode",
			env:      map[string]string{"AUTH_MODE": "basic"},
			expected: "AUTH_MODE",
		},
		{
			name:     "unknown credential key",
			env:      map[string]string{"AUTH_MODE": "password", "CREDENTIAL_KEY": "email"},
			expected: "CREDENTIAL_KEY",
		},
		{
			name:     "postgres without password",
			env:      map[string]string{"AUTH_MODE": "password", "CREDENTIAL_BACKEND": "postgres"},
			expected: "DB_PASSWORD",
		},
		{
			name:     "unknown backend",
			env:      map[string]string{"AUTH_MODE": "password", "CREDENTIAL_BACKEND": "redis"},
			expected: "CREDENTIAL_BACKEND",
		},
		{
			name:     "bad duration",
			env:      map[string]string{"HTTP_TIMEOUT": "soon"},
			expected: "HTTP_TIMEOUT",
		},
		{
			name:     "bad boolean",
			env:      map[string]string{"ENABLE_COMPRESSION": "maybe"},
			expected: "ENABLE_COMPRESSION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}
