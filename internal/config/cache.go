package config

import (
    "strings"
    "time"
)

// CacheConfig controls the Redis response cache on catalogue listings.
// Resources names the first path segments whose GET responses may be
// cached; rentals and customers change on every lifecycle call and are
// left out by default.  Keys are namespaced by Prefix so that a write to a
// resource can drop every cached page under it.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    Resources    []string
    TTL          time.Duration
    KeyStrategy  string // route_query, route, method_route or method_route_query
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
        Resources:    envList("CACHE_RESOURCES", "categories,games"),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "boardcamp:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

// Caches reports whether responses for resource may be stored.  An empty
// Resources list allows every resource.
func (c CacheConfig) Caches(resource string) bool {
    if len(c.Resources) == 0 {
        return true
    }
    for _, r := range c.Resources {
        if strings.EqualFold(r, resource) {
            return true
        }
    }
    return false
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range parseList(strings.ToUpper(s)) {
        m[p] = true
    }
    return m
}
