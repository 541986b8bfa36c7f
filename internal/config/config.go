package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	// Storage engine selection, read once at process start.
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"sqlite"`

	// Embedded engine settings.
	SQLitePath string `envconfig:"SQLITE_PATH" default:"pantrypal.db"`

	// Pooled engine settings.
	DatabaseURL          string `envconfig:"DATABASE_URL"`
	DBMaxConns           int    `envconfig:"DB_MAX_CONNS" default:"10"`
	DBConnIdleTimeoutSec int    `envconfig:"DB_CONN_IDLE_TIMEOUT_SEC" default:"300"`
	DBConnectTimeoutSec  int    `envconfig:"DB_CONNECT_TIMEOUT_SEC" default:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
