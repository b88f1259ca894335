// Package config loads the process configuration from the environment.
package config

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/validator"
)

// Config is the full process configuration. Every field is overridable
// through the environment; defaults target a local development node.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// NodeEndpoint is the chain node's WebSocket RPC endpoint.
	NodeEndpoint string `envconfig:"NODE_ENDPOINT" default:"ws://127.0.0.1:9944" validate:"required"`

	// BackendURL points at the coordination service. Empty switches the
	// backend client into its in-memory mode.
	BackendURL string `envconfig:"BACKEND_URL" validate:"omitempty,url"`

	// DataPath is the bbolt file holding the event log and preferences.
	DataPath string `envconfig:"DATA_PATH" default:"claddash.db" validate:"required"`

	// RegistryPath is an optional YAML file naming multisig signatories.
	RegistryPath string `envconfig:"REGISTRY_PATH"`

	// BackfillDepth is how many recent blocks each sync session rescans.
	BackfillDepth uint64 `envconfig:"BACKFILL_DEPTH" default:"50" validate:"gt=0"`

	Redis RedisConfig
}

// RedisConfig selects the shared Redis store. When Addr is empty the local
// bbolt store is used instead.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Load reads and validates the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("CLADDASH", &cfg); err != nil {
		return Config{}, err
	}
	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
