package config

import (
    "strings"
    "time"
)

// RateLimitConfig drives the token bucket in front of the API.  Capacity is
// the burst a client may spend at once; RefillTokens are added back every
// RefillInterval.  Requests whose path is listed in Exempt (probes and the
// Prometheus scrape by default) are never limited.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // ip | route | ip_route
    Prefix         string
    Exempt         []string
    Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  The defaults allow a
// burst of 60 requests and one more per second per client and route.
func LoadRateLimitConfig() RateLimitConfig {
    c := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "boardcamp:rl"),
        Exempt:         envList("RATE_LIMIT_EXEMPT", "/healthz,/readyz,/metrics"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    // shorthands: RATE_LIMIT_BURST overrides the capacity and
    // RATE_LIMIT_REFILL_EVERY means one token per period
    if b := envInt("RATE_LIMIT_BURST", 0); b > 0 {
        c.Capacity = b
    }
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        c.RefillTokens = 1
        c.RefillInterval = every
    }
    return c.normalize()
}

// Exempts reports whether requests to path skip the limiter.
func (c RateLimitConfig) Exempts(path string) bool {
    for _, p := range c.Exempt {
        if strings.EqualFold(p, path) {
            return true
        }
    }
    return false
}

// normalize clamps the limiter parameters to usable values.  Buckets must
// outlive a few refill periods or idle clients would reset to full.
func (c RateLimitConfig) normalize() RateLimitConfig {
    if c.Capacity < 1 {
        c.Capacity = 1
    }
    if c.RefillTokens < 1 {
        c.RefillTokens = 1
    }
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
        c.TTL = minTTL
    }
    return c
}
