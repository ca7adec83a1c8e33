package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// StaticDir is served as-is, with unmatched paths routed to its entry
	// document. Empty disables static serving (API-only deployment).
	StaticDir string `env:"STATIC_DIR"`

	// PanelPasswordHash is the bcrypt hash of the shared panel secret.
	// Knowledge of the secret, not identity, unlocks the panel UI; the
	// capability token layered on top only adds an admin-rank check.
	PanelPasswordHash string        `env:"PANEL_PASSWORD_HASH"`
	PanelTokenSecret  string        `env:"PANEL_TOKEN_SECRET"`
	PanelUnlockTTL    time.Duration `env:"PANEL_UNLOCK_TTL, default=24h"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=cartelhax"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
