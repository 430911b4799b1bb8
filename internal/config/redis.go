package config

import (
    "context"
    "crypto/tls"
    "net"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"
)

// RedisConfig locates the Redis server shared by the response cache and
// the distributed rate limiter.  Addr is used unless REDIS_HOST and
// REDIS_PORT are both set.
type RedisConfig struct {
    Addr        string
    Password    string
    DB          int
    TLS         bool
    PingTimeout time.Duration
}

func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        addr = net.JoinHostPort(host, port)
    }
    return RedisConfig{
        Addr:        addr,
        Password:    envStr("REDIS_PASSWORD", ""),
        DB:          envInt("REDIS_DB", 0),
        TLS:         envBool("REDIS_TLS", false),
        PingTimeout: envDur("REDIS_PING_TIMEOUT", 2*time.Second),
    }
}

// NewRedisClient connects to Redis and pings it once.  It returns nil when
// the server cannot be reached: the catalogue cache is then disabled and
// rate limiting stays in-process.
func NewRedisClient(cfg RedisConfig, log logrus.FieldLogger) *redis.Client {
    opts := &redis.Options{
        Addr:     cfg.Addr,
        Password: cfg.Password,
        DB:       cfg.DB,
    }
    if cfg.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.WithError(err).WithField("addr", cfg.Addr).Warn("redis unavailable; catalogue cache disabled, rate limiting in-process")
        _ = client.Close()
        return nil
    }
    return client
}
