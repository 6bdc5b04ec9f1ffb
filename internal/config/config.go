// Package config reads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is used when POS_JWT_SECRET is unset. It is only fit for
// local development.
const DefaultJWTSecret = "pos-dev-secret"

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds the settings of the POS server.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":8081"`
	Storage         string        `env:"STORAGE"          envDefault:"sqlite"`
	DBPath          string        `env:"DB_PATH"          envDefault:"pos.db"`
	StorageTimeout  time.Duration `env:"STORAGE_TIMEOUT"  envDefault:"5s"`
	JWTSecret       string        `env:"JWT_SECRET"       envDefault:"pos-dev-secret"`
	TokenTTL        time.Duration `env:"TOKEN_TTL"        envDefault:"12h"`
	OwnerUsername   string        `env:"OWNER_USERNAME"   envDefault:"admin"`
	OwnerPassword   string        `env:"OWNER_PASSWORD"   envDefault:"admin123"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"     envDefault:"*" envSeparator:","`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	LowStockThreshold int           `env:"LOW_STOCK_THRESHOLD" envDefault:"3"`
	LowStockInterval  time.Duration `env:"LOW_STOCK_INTERVAL"  envDefault:"1h"`
}

// Load reads an optional .env file and then parses POS_* variables.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "POS_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the server cannot start with.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.Storage == StorageSQLite && c.DBPath == "" {
		return errors.New("db path is required for sqlite storage")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.LowStockInterval <= 0 {
		return errors.New("low stock interval must be positive")
	}
	if c.LowStockThreshold < 0 {
		return errors.New("low stock threshold must not be negative")
	}
	return nil
}
