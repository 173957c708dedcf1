// Package config handles resolving configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config is the resolved application configuration. Values come from the
// YAML config file, overridden per-field by CONTACTBOARD_* environment
// variables.
type Config struct {
	// ListenAddress is the host:port the web server binds to.
	ListenAddress string `yaml:"listen_address" validate:"required,hostname_port"`
	// DBFilepath locates the SQLite database file. ":memory:" is accepted.
	DBFilepath string `yaml:"db_filepath" validate:"required"`
	// RedisAddr, when set, moves session storage to Redis. Sessions live in
	// a SQLite table otherwise.
	RedisAddr     string `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `yaml:"redis_password"`
	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `yaml:"bcrypt_cost" validate:"min=4,max=31"`
	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
	// SecureCookies marks the session cookie Secure. Leave false only for
	// plain-HTTP local development.
	SecureCookies bool `yaml:"secure_cookies"`
	// DevMode enables request logging, echo debug output, and seed data.
	DevMode bool `yaml:"dev_mode"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "contactboard.yaml")
}

// Default returns a config with all default values populated.
func Default() *Config {
	return &Config{
		ListenAddress: "localhost:4114",
		DBFilepath:    filepath.Join(xdg.DataHome, "contactboard", "db.sqlite"),
		BcryptCost:    bcrypt.DefaultCost,
		LogLevel:      "INFO",
	}
}

// Load reads the YAML configuration file at path, layers it over the
// defaults, applies environment overrides, and validates the result. A
// missing file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CONTACTBOARD_LISTEN_ADDRESS"); v != "" {
		c.ListenAddress = strings.TrimSpace(v)
	}
	if v := os.Getenv("CONTACTBOARD_DB_FILEPATH"); v != "" {
		c.DBFilepath = strings.TrimSpace(v)
	}
	if v := os.Getenv("CONTACTBOARD_REDIS_ADDR"); v != "" {
		c.RedisAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("CONTACTBOARD_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("CONTACTBOARD_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.BcryptCost = n
		}
	}
	if v := os.Getenv("CONTACTBOARD_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToUpper(strings.TrimSpace(v))
	}
	if v := os.Getenv("CONTACTBOARD_SECURE_COOKIES"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.SecureCookies = b
		}
	}
	if v := os.Getenv("CONTACTBOARD_DEV_MODE"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.DevMode = b
		}
	}
}
