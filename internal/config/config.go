package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for hive-bff.
type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream"`
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Dents    DentsConfig    `mapstructure:"dents"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// UpstreamConfig holds the Hive backend API connection settings.
type UpstreamConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the upstream request timeout as a duration.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// APIConfig holds HTTP server settings for the BFF itself.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// AuthConfig holds upstream credential settings.
type AuthConfig struct {
	// UpstreamToken is the bearer token sent to the backend. When empty,
	// UpstreamTokenEnv names an environment variable read per request.
	UpstreamToken    string `mapstructure:"upstream_token"`
	UpstreamTokenEnv string `mapstructure:"upstream_token_env"`
}

// DentsConfig holds aggregation defaults.
type DentsConfig struct {
	IncludeDeleted bool `mapstructure:"include_deleted"`
}

// UploadConfig holds document upload settings.
type UploadConfig struct {
	StorageDir string `mapstructure:"storage_dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("upstream.base_url", "http://localhost:9000/api")
	v.SetDefault("upstream.timeout_seconds", 15)

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	v.SetDefault("auth.upstream_token", "")
	v.SetDefault("auth.upstream_token_env", "HIVE_BFF_UPSTREAM_TOKEN")

	v.SetDefault("dents.include_deleted", false)

	v.SetDefault("upload.storage_dir", filepath.Join(homeDir(), ".hive-bff", "uploads"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".hive-bff"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("HIVE_BFF")
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("upstream.base_url", "HIVE_BFF_UPSTREAM_BASE_URL")
	_ = v.BindEnv("api.listen_addr", "HIVE_BFF_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "HIVE_BFF_API_AUTH_TOKEN")
	_ = v.BindEnv("upload.storage_dir", "HIVE_BFF_UPLOAD_STORAGE_DIR")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK — use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url must not be empty")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("upstream.timeout_seconds must be greater than 0")
	}
	if c.API.ListenAddr == "" {
		return fmt.Errorf("api.listen_addr must not be empty")
	}
	if c.Upload.StorageDir == "" {
		return fmt.Errorf("upload.storage_dir must not be empty")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
