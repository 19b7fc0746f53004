package auth

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/user-auth-service/internal/model"
    "github.com/iliyamo/user-auth-service/internal/repository"
)

// Resolver turns a bearer token into the user it was issued for.
type Resolver struct {
    tokens *TokenService
    users  repository.UserStore
    now    func() time.Time
}

// NewResolver builds a Resolver. now defaults to time.Now.
func NewResolver(tokens *TokenService, users repository.UserStore, now func() time.Time) *Resolver {
    if now == nil {
        now = time.Now
    }
    return &Resolver{tokens: tokens, users: users, now: now}
}

// ResolveCurrentUser validates token and loads its subject. Every
// authentication failure, including a subject that no longer exists, matches
// ErrUnauthorized; the concrete cause stays wrapped for logs. Store failures
// other than not-found are returned as they are.
func (r *Resolver) ResolveCurrentUser(ctx context.Context, token string) (model.User, error) {
    id, err := r.tokens.Validate(token, r.now())
    if err != nil {
        return model.User{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
    }
    u, err := r.users.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return model.User{}, fmt.Errorf("%w: subject %d: %w", ErrUnauthorized, id, err)
        }
        return model.User{}, fmt.Errorf("load user %d: %w", id, err)
    }
    return u, nil
}

// RequireRole returns u unchanged when it holds role, ErrForbidden otherwise.
func RequireRole(u model.User, role string) (model.User, error) {
    if u.Role != role {
        return model.User{}, ErrForbidden
    }
    return u, nil
}
