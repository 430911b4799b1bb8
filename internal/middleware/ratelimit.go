package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "github.com/iliyamo/boardcamp-api/internal/config"
)

// NewTokenBucket limits requests per key (see buildRateKey).  With Redis the
// bucket is shared across instances through a Lua script; without it, or
// while a script call fails, each process keeps its own golang.org/x/time/rate
// limiters.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }
    local := newLocalBucket(cfg)
    if rdb == nil {
        return local.middleware
    }

    limiterScript := redis.NewScript(`
        local key = KEYS[1]
        local now_ms = tonumber(ARGV[1])
        local capacity = tonumber(ARGV[2])
        local refill_tokens = tonumber(ARGV[3])
        local interval_ms = tonumber(ARGV[4])
        local ttl_seconds = tonumber(ARGV[5])

        local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
        local tokens = tonumber(state[1])
        local last_refill = tonumber(state[2])

        if tokens == nil or last_refill == nil then
            tokens = capacity
            last_refill = now_ms
        end

        if interval_ms > 0 and refill_tokens > 0 then
            local elapsed = math.max(0, now_ms - last_refill)
            local intervals = math.floor(elapsed / interval_ms)
            if intervals > 0 then
                tokens = math.min(capacity, tokens + (intervals * refill_tokens))
                last_refill = last_refill + (intervals * interval_ms)
            end
        end

        local allowed = 0
        local retry_after_ms = 0
        if tokens > 0 then
            allowed = 1
            tokens = tokens - 1
        else
            local until_next = interval_ms - (now_ms - last_refill)
            if until_next < 0 then until_next = 0 end
            retry_after_ms = until_next
        end

        redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
        redis.call('EXPIRE', key, ttl_seconds)

        return { allowed, tokens, retry_after_ms }
    `)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if cfg.Exempts(c.Request().URL.Path) {
                return next(c)
            }
            key := buildRateKey(cfg, c)
            now := time.Now()

            args := []interface{}{
                now.UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }

            ctx := c.Request().Context()
            vals, err := limiterScript.Run(ctx, rdb, []string{key}, args...).Result()
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
                }
                return local.middleware(next)(c)
            }

            allowed := false
            remaining := int64(0)
            retryMs := int64(0)

            if arr, ok := vals.([]interface{}); ok && len(arr) == 3 {
                if i, ok := arr[0].(int64); ok { allowed = (i == 1) } else { allowed = fmt.Sprint(arr[0]) == "1" }
                remaining = asInt64(arr[1])
                retryMs = asInt64(arr[2])
            } else {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] unexpected script result for key=%s: %#v", key, vals)
                }
                return local.middleware(next)(c)
            }

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if !allowed {
                if cfg.Debug {
                    c.Logger().Infof("[ratelimit] block key=%s remaining=%d retry=%dms", key, remaining, retryMs)
                }
                return tooManyRequests(c, time.Duration(retryMs)*time.Millisecond)
            }

            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            return next(c)
        }
    }
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64: return t
    case int32: return int64(t)
    case int: return int64(t)
    case float64: return int64(t)
    case float32: return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil { return n }
    }
    return 0
}

func tooManyRequests(c echo.Context, retry time.Duration) error {
    secs := int(math.Ceil(retry.Seconds()))
    if secs < 0 { secs = 0 }
    c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
    return c.JSON(http.StatusTooManyRequests, map[string]any{
        "error":       "rate limit exceeded",
        "retry_after": secs,
    })
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    ip := c.RealIP()
    if ip == "" { ip = "unknown" }
    route := c.Request().Method + " " + c.Path()

    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "route":
        parts = append(parts, "route", route)
    default: // "ip_route"
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}

// localBucket is the in-process fallback.  Idle limiters are dropped after
// cfg.TTL so the map does not grow without bound.
type localBucket struct {
    cfg   config.RateLimitConfig
    limit rate.Limit
    now   func() time.Time

    mu      sync.Mutex
    entries map[string]*localEntry
    swept   time.Time
}

type localEntry struct {
    lim  *rate.Limiter
    seen time.Time
}

func newLocalBucket(cfg config.RateLimitConfig) *localBucket {
    every := cfg.RefillInterval / time.Duration(cfg.RefillTokens)
    return &localBucket{
        cfg:     cfg,
        limit:   rate.Every(every),
        now:     time.Now,
        entries: map[string]*localEntry{},
    }
}

func (b *localBucket) get(key string, now time.Time) *rate.Limiter {
    b.mu.Lock()
    defer b.mu.Unlock()
    if now.Sub(b.swept) > b.cfg.TTL {
        for k, e := range b.entries {
            if now.Sub(e.seen) > b.cfg.TTL {
                delete(b.entries, k)
            }
        }
        b.swept = now
    }
    e, ok := b.entries[key]
    if !ok {
        e = &localEntry{lim: rate.NewLimiter(b.limit, b.cfg.Capacity)}
        b.entries[key] = e
    }
    e.seen = now
    return e.lim
}

func (b *localBucket) middleware(next echo.HandlerFunc) echo.HandlerFunc {
    return func(c echo.Context) error {
        if b.cfg.Exempts(c.Request().URL.Path) {
            return next(c)
        }
        now := b.now()
        lim := b.get(buildRateKey(b.cfg, c), now)
        res := lim.ReserveN(now, 1)
        if !res.OK() {
            return tooManyRequests(c, b.cfg.RefillInterval)
        }
        if delay := res.DelayFrom(now); delay > 0 {
            res.CancelAt(now)
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(b.cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", "0")
            return tooManyRequests(c, delay)
        }
        c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(b.cfg.Capacity))
        c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(lim.TokensAt(now))))
        return next(c)
    }
}
