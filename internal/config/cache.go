package config

import (
    "fmt"
    "time"

    "github.com/caarlos0/env/v11"
)

// SnapshotCacheConfig controls the Redis cache that holds the latest
// seating snapshot of each classroom.  When Enabled is false or no Redis
// client is configured, every read goes to the database.
type SnapshotCacheConfig struct {
    Enabled bool          `env:"CACHE_ENABLED" envDefault:"true"`
    TTL     time.Duration `env:"CACHE_TTL" envDefault:"10m"`
    Prefix  string        `env:"CACHE_PREFIX" envDefault:"seating"` // also namespaces class locks
}

// LoadSnapshotCacheConfig parses the CACHE_* variables.
func LoadSnapshotCacheConfig() (SnapshotCacheConfig, error) {
    var cfg SnapshotCacheConfig
    if err := env.Parse(&cfg); err != nil {
        return SnapshotCacheConfig{}, fmt.Errorf("parse cache env: %w", err)
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 10 * time.Minute
    }
    if cfg.Prefix == "" {
        cfg.Prefix = "seating"
    }
    return cfg, nil
}
