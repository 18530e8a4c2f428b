package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ircgateway/internal/domain"

	"github.com/joho/godotenv"
)

// Credential store backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	ListenAddr string
	ServerName string
	LogLevel   string

	AuthMode       domain.AuthMode
	ConsumerKey    string
	ConsumerSecret string

	APIBaseURL        string
	OAuthBaseURL      string
	HTTPTimeout       time.Duration
	EnableCompression bool

	CredentialKey     domain.CredentialKey
	CredentialBackend string
	ConfigDir         string
	Database          DatabaseConfig

	RejectDelay time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	httpTimeout, err := getDuration("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	rejectDelay, err := getDuration("REJECT_DELAY", 10*time.Second)
	if err != nil {
		return nil, err
	}
	compression, err := getBool("ENABLE_COMPRESSION", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", "127.0.0.1:16668"),
		ServerName:        getEnv("SERVER_NAME", "ircgateway"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AuthMode:          domain.AuthMode(getEnv("AUTH_MODE", string(domain.AuthModeOAuth))),
		ConsumerKey:       os.Getenv("OAUTH_CONSUMER_KEY"),
		ConsumerSecret:    os.Getenv("OAUTH_CONSUMER_SECRET"),
		APIBaseURL:        getEnv("API_BASE_URL", "https://api.twitter.com/1.1"),
		OAuthBaseURL:      getEnv("OAUTH_BASE_URL", "https://api.twitter.com/oauth"),
		HTTPTimeout:       httpTimeout,
		EnableCompression: compression,
		CredentialKey:     domain.CredentialKey(getEnv("CREDENTIAL_KEY", string(domain.KeyScreenName))),
		CredentialBackend: getEnv("CREDENTIAL_BACKEND", BackendFile),
		ConfigDir:         getEnv("CONFIG_DIR", "./configs"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "ircgateway"),
			User:     getEnv("DB_USER", "ircgateway"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		RejectDelay: rejectDelay,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	switch c.AuthMode {
	case domain.AuthModeOAuth, domain.AuthModeXAuth:
		if c.ConsumerKey == "" {
			return fmt.Errorf("OAUTH_CONSUMER_KEY is required")
		}
		if c.ConsumerSecret == "" {
			return fmt.Errorf("OAUTH_CONSUMER_SECRET is required")
		}
	case domain.AuthModePassword:
	default:
		return fmt.Errorf("AUTH_MODE must be oauth, password or xauth, got %q", c.AuthMode)
	}

	switch c.CredentialKey {
	case domain.KeyScreenName, domain.KeyUserID:
	default:
		return fmt.Errorf("CREDENTIAL_KEY must be screen_name or user_id, got %q", c.CredentialKey)
	}

	switch c.CredentialBackend {
	case BackendFile:
		if c.ConfigDir == "" {
			return fmt.Errorf("CONFIG_DIR is required")
		}
	case BackendPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("CREDENTIAL_BACKEND must be file or postgres, got %q", c.CredentialBackend)
	}

	return nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}
