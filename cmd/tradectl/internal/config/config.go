package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

// EnvPrefix is prepended to every environment variable, e.g. TRADEDESK_API_BASE_URL.
const EnvPrefix = "TRADEDESK"

// Credential store backends.
const (
	StoreFile  = "file"
	StoreSQL   = "sql"
	StoreRedis = "redis"
)

// Config holds the tradectl configuration
type Config struct {
	// Base URL of the back-office API
	APIBaseURL string

	// Durable Record backend: file, sql or redis
	CredentialStore string

	// Location of the Durable Record: a file path for "file", a DSN for "sql"
	CredentialDSN string

	// Redis address for the "redis" backend
	RedisAddr string

	// Key the token is stored under
	StorageKey string

	// Timeout applied to the underlying http.Client
	HTTPTimeout time.Duration

	NonInteractive bool
	Verbose        bool
}

// Load reads configuration from the environment and, when one was set with
// viper.SetConfigFile, a config file. Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.GetViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_base_url", "http://127.0.0.1:8000/")
	v.SetDefault("credential_store", StoreFile)
	v.SetDefault("credential_dsn", "")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("storage_key", sdk.DefaultStorageKey)
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("non_interactive", false)
	v.SetDefault("verbose", false)

	cfg := &Config{
		APIBaseURL:      strings.TrimSpace(v.GetString("api_base_url")),
		CredentialStore: strings.ToLower(strings.TrimSpace(v.GetString("credential_store"))),
		CredentialDSN:   v.GetString("credential_dsn"),
		RedisAddr:       v.GetString("redis_addr"),
		StorageKey:      v.GetString("storage_key"),
		HTTPTimeout:     v.GetDuration("http_timeout"),
		NonInteractive:  v.GetBool("non_interactive"),
		Verbose:         v.GetBool("verbose"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields Load cannot default.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("%s_API_BASE_URL is required", EnvPrefix)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s_API_BASE_URL must be an absolute URL, got %q", EnvPrefix, c.APIBaseURL)
	}

	switch c.CredentialStore {
	case StoreFile:
	case StoreSQL:
		if c.CredentialDSN == "" {
			return fmt.Errorf("%s_CREDENTIAL_DSN is required for the sql credential store", EnvPrefix)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%s_REDIS_ADDR is required for the redis credential store", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown credential store %q (want %s, %s or %s)", c.CredentialStore, StoreFile, StoreSQL, StoreRedis)
	}

	if c.StorageKey == "" {
		return fmt.Errorf("%s_STORAGE_KEY must not be empty", EnvPrefix)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%s_HTTP_TIMEOUT must be positive", EnvPrefix)
	}
	return nil
}
