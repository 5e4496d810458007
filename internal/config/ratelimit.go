package config

import (
    "fmt"
    "time"

    "github.com/caarlos0/env/v11"
)

// RateLimitConfig drives the Redis token bucket placed in front of the
// arrangement and export endpoints.  The bucket is keyed per user and
// route by default.
type RateLimitConfig struct {
    Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
    Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"30"`
    RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS" envDefault:"1"`
    RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s"`
    TTL            time.Duration `env:"RATE_LIMIT_TTL" envDefault:"10m"`
    KeyStrategy    string        `env:"RATE_LIMIT_KEY_STRATEGY" envDefault:"user_route"` // ip | user | route | ip_route | user_route
    Prefix         string        `env:"RATE_LIMIT_PREFIX" envDefault:"rl"`
    Debug          bool          `env:"RATE_LIMIT_DEBUG" envDefault:"false"`
}

// LoadRateLimitConfig parses RATE_LIMIT_* variables and clamps them to sane
// minimums.
func LoadRateLimitConfig() (RateLimitConfig, error) {
    var cfg RateLimitConfig
    if err := env.Parse(&cfg); err != nil {
        return RateLimitConfig{}, fmt.Errorf("parse rate limit env: %w", err)
    }
    cfg.validate()
    return cfg, nil
}

func (c *RateLimitConfig) validate() {
    if c.Capacity < 1 {
        c.Capacity = 1
    }
    if c.RefillTokens < 1 {
        c.RefillTokens = 1
    }
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    // a bucket must outlive a few refill steps or it resets to full
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
        c.TTL = minTTL
    }
}
