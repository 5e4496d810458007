package config

// This file defines the Redis client constructor.  Redis backs the rate
// limiter, the latest-snapshot cache and the per-classroom lock.  If the
// server cannot be reached at startup the constructor returns nil and every
// consumer falls back to its in-process behaviour.

import (
    "context"
    "crypto/tls"
    "fmt"
    "time"

    "github.com/caarlos0/env/v11"
    "github.com/redis/go-redis/v9"
)

// RedisConfig describes how to reach Redis.  Host and Port take precedence
// over Addr when both are set.
type RedisConfig struct {
    Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
    Host     string `env:"REDIS_HOST"`
    Port     string `env:"REDIS_PORT"`
    Password string `env:"REDIS_PASSWORD"`
    DB       int    `env:"REDIS_DB" envDefault:"0"`
    TLS      bool   `env:"REDIS_TLS" envDefault:"false"`
}

// LoadRedisConfig parses the REDIS_* variables.
func LoadRedisConfig() (RedisConfig, error) {
    var cfg RedisConfig
    if err := env.Parse(&cfg); err != nil {
        return RedisConfig{}, fmt.Errorf("parse redis env: %w", err)
    }
    switch {
    case cfg.Host != "" && cfg.Port != "":
        cfg.Addr = cfg.Host + ":" + cfg.Port
    case cfg.Addr == "":
        cfg.Addr = "localhost:6379"
    }
    return cfg, nil
}

// NewRedisClient connects using cfg and pings the server with a short
// timeout.  The returned client is nil if a connection cannot be established.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
