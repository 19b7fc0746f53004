package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/logging"
	"github.com/iliyamo/user-auth-service/internal/model"
)

// CachedUserRepo puts a redis read-through cache in front of GetByID, the
// lookup performed on every authenticated request. Entries are dropped on
// Delete so a removed user stops resolving immediately.
//
// Cached entries never hold the password hash: users served from the cache
// carry an empty PasswordHash. Credential checks go through GetByEmail or
// GetByEmailOrName, which always hit the underlying store.
type CachedUserRepo struct {
	inner UserStore
	rdb   *redis.Client
	ttl   time.Duration
	pfx   string
	log   logging.Logger
}

// NewCachedUserRepo wraps inner. When the cache is disabled or rdb is nil
// it returns inner unchanged.
func NewCachedUserRepo(inner UserStore, rdb *redis.Client, cfg config.UserCacheConfig, log logging.Logger) UserStore {
	if !cfg.Enabled || rdb == nil {
		return inner
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &CachedUserRepo{inner: inner, rdb: rdb, ttl: cfg.TTL, pfx: cfg.Prefix, log: log}
}

type cachedUser struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *CachedUserRepo) key(id uint64) string {
	return r.pfx + ":user:" + strconv.FormatUint(id, 10)
}

func (r *CachedUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (uint64, error) {
	return r.inner.Create(ctx, name, email, passwordHash, role)
}

// GetByID serves from redis when possible. Redis failures fall through to
// the store.
func (r *CachedUserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	if bs, err := r.rdb.Get(ctx, r.key(id)).Bytes(); err == nil {
		var c cachedUser
		if json.Unmarshal(bs, &c) == nil {
			return model.User{
				ID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role,
				CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
			}, nil
		}
	}

	u, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	payload, err := json.Marshal(cachedUser{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	})
	if err == nil {
		_ = r.rdb.Set(ctx, r.key(id), payload, r.ttl).Err()
	}
	return u, nil
}

func (r *CachedUserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *CachedUserRepo) GetByEmailOrName(ctx context.Context, identifier string) (model.User, error) {
	return r.inner.GetByEmailOrName(ctx, identifier)
}

// Delete removes the user from the store, then from the cache. The cache
// entry is dropped even if the request context is already done. Once the
// store delete succeeds the call succeeds; a failed invalidation is logged
// and the stale entry ages out after the cache TTL.
func (r *CachedUserRepo) Delete(ctx context.Context, id uint64) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := r.rdb.Del(delCtx, r.key(id)).Err(); err != nil {
		r.log.Warn(ctx, "user cache invalidation failed", "user_id", id, "error", err)
	}
	return nil
}
