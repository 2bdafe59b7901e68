// Package config loads recordstore settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/recordstore/internal/store"
)

// Config holds process-wide settings. Command-line flags override the
// environment where both exist.
type Config struct {
	DataDir          string        `env:"RECORDSTORE_DATA_DIR"          envDefault:"."`
	SQLDriver        string        `env:"RECORDSTORE_SQL_DRIVER"        envDefault:"sqlite3"`
	BusyTimeout      time.Duration `env:"RECORDSTORE_BUSY_TIMEOUT"      envDefault:"5s"`
	Synchronous      string        `env:"RECORDSTORE_SYNCHRONOUS"       envDefault:"NORMAL"`
	ExclusiveLocking bool          `env:"RECORDSTORE_EXCLUSIVE_LOCKING"`
	TempStoreMemory  bool          `env:"RECORDSTORE_TEMP_STORE_MEMORY"`
	LogLevel         slog.Level    `env:"RECORDSTORE_LOG_LEVEL"         envDefault:"info"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration of an empty environment.
func Default() Config {
	return Config{
		DataDir:     ".",
		SQLDriver:   store.DriverCGO,
		BusyTimeout: 5 * time.Second,
		Synchronous: "NORMAL",
		LogLevel:    slog.LevelInfo,
	}
}

// StoreOptions maps the storage settings onto store.Options.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Driver:           c.SQLDriver,
		BusyTimeout:      c.BusyTimeout,
		Synchronous:      c.Synchronous,
		ExclusiveLocking: c.ExclusiveLocking,
		TempStoreMemory:  c.TempStoreMemory,
	}
}
