package config

import "time"

// UserCacheConfig defines settings for the redis read-through cache in front
// of user lookups by id. When Enabled is false or no Redis client is
// configured, lookups go straight to the store.
type UserCacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadUserCacheConfig reads USER_CACHE_* variables.
func LoadUserCacheConfig() UserCacheConfig {
    c := UserCacheConfig{
        Enabled: envBool("USER_CACHE_ENABLED", true),
        TTL:     envDur("USER_CACHE_TTL", 30*time.Second),
        Prefix:  envStr("USER_CACHE_PREFIX", "usercache"),
    }
    if c.TTL <= 0 {
        c.TTL = 30 * time.Second
    }
    return c
}
