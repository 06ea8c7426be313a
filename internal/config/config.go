// Package config handles application configuration loading. Values come
// from an optional config file and the environment, with development
// defaults for everything except secrets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host    string
	Port    string
	Env     string // "development", "production", "testing"
	BaseURL string // absolute origin used in feeds and search results; required in production

	// Site
	SiteTitle string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (sessions and flash messages)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Login attempts allowed per client IP per minute.
	LoginRateLimit int
}

var defaults = map[string]any{
	"app_host":          "0.0.0.0",
	"app_port":          "8080",
	"app_env":           "development",
	"app_base_url":      "",
	"site_title":        "Blogpress",
	"postgres_host":     "localhost",
	"postgres_port":     "5432",
	"postgres_user":     "blogpress",
	"postgres_password": "changeme",
	"postgres_db":       "blogpress",
	"valkey_host":       "localhost",
	"valkey_port":       "6379",
	"valkey_password":   "",
	"login_rate_limit":  10,
}

// Load reads configuration. A .env file in the working directory is
// loaded first (without overriding the real environment); file, when not
// empty, names a YAML/TOML/JSON config file whose keys match the
// lower-cased environment variable names. The environment always wins.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		Host:      v.GetString("app_host"),
		Port:      v.GetString("app_port"),
		Env:       v.GetString("app_env"),
		BaseURL:   strings.TrimRight(v.GetString("app_base_url"), "/"),
		SiteTitle: v.GetString("site_title"),

		DBHost:     v.GetString("postgres_host"),
		DBPort:     v.GetString("postgres_port"),
		DBUser:     v.GetString("postgres_user"),
		DBPassword: v.GetString("postgres_password"),
		DBName:     v.GetString("postgres_db"),

		ValkeyHost:     v.GetString("valkey_host"),
		ValkeyPort:     v.GetString("valkey_port"),
		ValkeyPassword: v.GetString("valkey_password"),

		LoginRateLimit: v.GetInt("login_rate_limit"),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("APP_BASE_URL must be set in production")
		}
	}
	if cfg.LoginRateLimit < 1 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT must be at least 1, got %d", cfg.LoginRateLimit)
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}
