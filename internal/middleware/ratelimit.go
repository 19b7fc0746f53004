package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "github.com/iliyamo/user-auth-service/internal/config"
    "github.com/iliyamo/user-auth-service/internal/logging"
)

// NewRateLimiter picks the limiter for cfg: the shared redis token bucket
// when a client is available, otherwise a per-process limiter with the same
// capacity and refill rate. A disabled config yields a pass-through.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log logging.Logger) echo.MiddlewareFunc {
    if log == nil {
        log = logging.Nop{}
    }
    switch {
    case !cfg.Enabled:
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    case rdb == nil:
        return NewMemoryLimiter(cfg)
    default:
        return NewTokenBucket(cfg, rdb, log)
    }
}

// NewMemoryLimiter is the fallback used when redis is unreachable. Buckets
// are keyed the same way as the redis limiter but live in this process only.
func NewMemoryLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
    store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
        Rate:      rate.Limit(cfg.PerSecond()),
        Burst:     cfg.Capacity,
        ExpiresIn: cfg.TTL,
    })
    retry := int(math.Ceil(cfg.RefillInterval.Seconds() / float64(cfg.RefillTokens)))
    return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
        Store: store,
        IdentifierExtractor: func(c echo.Context) (string, error) {
            return buildRateKey(cfg, c), nil
        },
        DenyHandler: func(c echo.Context, _ string, _ error) error {
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            return tooManyRequests(c, retry)
        },
    })
}

// NewTokenBucket enforces cfg with a Lua token bucket kept in redis, so every
// instance shares the same budget per key. Redis errors let the request
// through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logging.Logger) echo.MiddlewareFunc {
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
                log.Warn(ctx, "ratelimit redis error", "key", key, "error", err)
                return next(c)
            }

            allowed := false
            remaining := int64(0)
            retryMs := int64(0)

            if arr, ok := vals.([]interface{}); ok && len(arr) == 3 {
                if i, ok := arr[0].(int64); ok { allowed = (i == 1) } else { allowed = fmt.Sprint(arr[0]) == "1" }
                remaining = asInt64(arr[1])
                retryMs = asInt64(arr[2])
            } else {
                log.Warn(ctx, "ratelimit unexpected script result", "key", key, "result", fmt.Sprintf("%#v", vals))
                return next(c)
            }

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                if secs < 0 { secs = 0 }
                if cfg.Debug {
                    log.Info(ctx, "ratelimit block", "key", key, "remaining", remaining, "retry_ms", retryMs)
                }
                return tooManyRequests(c, secs)
            }

            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            return next(c)
        }
    }
}

func tooManyRequests(c echo.Context, retryAfter int) error {
    c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
    return c.JSON(http.StatusTooManyRequests, map[string]any{
        "error":       "too_many_requests",
        "message":     "rate limit exceeded",
        "retry_after": retryAfter,
    })
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

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    strategy := strings.ToLower(cfg.KeyStrategy)
    ip := c.RealIP()
    if ip == "" { ip = "unknown" }
    uid := currentUserID(c)
    route := c.Request().Method + " " + c.Path()

    switch strategy {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
