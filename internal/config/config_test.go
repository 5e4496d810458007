package config

import (
    "testing"
    "time"
)

func TestLoadDefaultsToMySQL(t *testing.T) {
    t.Chdir(t.TempDir())
    t.Setenv("DB_DRIVER", "")
    t.Setenv("DB_USER", "seating")

    cfg, err := Load()
    if err != nil {
        t.Fatalf("Load() error = %v", err)
    }
    if cfg.DBDriver != "mysql" || cfg.Port != "8080" || cfg.MaleMarker != "男" {
        t.Fatalf("cfg = %+v", cfg)
    }
}

func TestLoadSQLite(t *testing.T) {
    t.Chdir(t.TempDir())
    t.Setenv("DB_DRIVER", "SQLite")
    t.Setenv("SQLITE_PATH", "class.db")
    t.Setenv("SEATING_STRICT_CAPACITY", "true")

    cfg, err := Load()
    if err != nil {
        t.Fatalf("Load() error = %v", err)
    }
    if cfg.DBDriver != "sqlite" || cfg.SQLitePath != "class.db" || !cfg.StrictCapacity {
        t.Fatalf("cfg = %+v", cfg)
    }
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
    t.Chdir(t.TempDir())
    t.Setenv("DB_DRIVER", "postgres")
    if _, err := Load(); err == nil {
        t.Fatal("expected unsupported driver error")
    }
}

func TestLoadRequiresMySQLUser(t *testing.T) {
    t.Chdir(t.TempDir())
    t.Setenv("DB_DRIVER", "mysql")
    t.Setenv("DB_USER", "")
    if _, err := Load(); err == nil {
        t.Fatal("expected missing DB_USER error")
    }
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg, err := LoadRateLimitConfig()
    if err != nil {
        t.Fatalf("LoadRateLimitConfig() error = %v", err)
    }
    if cfg.Capacity != 1 {
        t.Fatalf("capacity = %d, want 1", cfg.Capacity)
    }
    if cfg.TTL != 10*time.Second {
        t.Fatalf("ttl = %s, want 10s", cfg.TTL)
    }
    if !cfg.Enabled || cfg.KeyStrategy != "user_route" || cfg.Prefix != "rl" {
        t.Fatalf("defaults not applied: %+v", cfg)
    }
}

func TestLoadRateLimitConfigRejectsMalformed(t *testing.T) {
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "soon")
    if _, err := LoadRateLimitConfig(); err == nil {
        t.Fatal("expected parse error for malformed duration")
    }
}

func TestLoadSnapshotCacheConfig(t *testing.T) {
    t.Setenv("CACHE_ENABLED", "false")
    t.Setenv("CACHE_TTL", "90s")

    cfg, err := LoadSnapshotCacheConfig()
    if err != nil {
        t.Fatalf("LoadSnapshotCacheConfig() error = %v", err)
    }
    if cfg.Enabled {
        t.Fatal("cache should be disabled")
    }
    if cfg.TTL != 90*time.Second || cfg.Prefix != "seating" {
        t.Fatalf("cfg = %+v", cfg)
    }

    t.Setenv("CACHE_TTL", "bogus")
    if _, err := LoadSnapshotCacheConfig(); err == nil {
        t.Fatal("expected parse error for malformed CACHE_TTL")
    }
}

func TestLoadRedisConfigHostPortWins(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6379")
    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("REDIS_DB", "2")
    t.Setenv("REDIS_TLS", "true")

    cfg, err := LoadRedisConfig()
    if err != nil {
        t.Fatalf("LoadRedisConfig() error = %v", err)
    }
    if cfg.Addr != "redis:6380" || cfg.DB != 2 || !cfg.TLS {
        t.Fatalf("cfg = %+v", cfg)
    }
}

func TestLoadRedisConfigDefaults(t *testing.T) {
    t.Setenv("REDIS_ADDR", "")
    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "")

    cfg, err := LoadRedisConfig()
    if err != nil {
        t.Fatalf("LoadRedisConfig() error = %v", err)
    }
    if cfg.Addr != "localhost:6379" || cfg.DB != 0 || cfg.TLS {
        t.Fatalf("cfg = %+v", cfg)
    }
}
