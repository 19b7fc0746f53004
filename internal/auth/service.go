package auth

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/user-auth-service/internal/logging"
    "github.com/iliyamo/user-auth-service/internal/model"
    "github.com/iliyamo/user-auth-service/internal/queue"
    "github.com/iliyamo/user-auth-service/internal/repository"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"

// LoginResult is returned by a successful login.
type LoginResult struct {
    AccessToken string    `json:"access_token"`
    TokenType   string    `json:"token_type"`
    ExpiresAt   time.Time `json:"expires_at"`
}

// Options tune a Service. The zero value is usable.
type Options struct {
    // AllowNameLogin lets the display name stand in for the email at login.
    AllowNameLogin bool
    Now            func() time.Time
}

// Service orchestrates registration and login over the store, the hash
// pool and the token service.
type Service struct {
    users     repository.UserStore
    hashes    *HashPool
    tokens    *TokenService
    events    queue.Publisher
    log       logging.Logger
    now       func() time.Time
    allowName bool

    // dummyHash is verified against when the identifier matches nobody, so
    // an unknown user costs as much time as a wrong password.
    dummyHash string
}

// NewService wires a Service. events and log may be nil.
func NewService(users repository.UserStore, hashes *HashPool, tokens *TokenService,
    events queue.Publisher, log logging.Logger, opts Options) (*Service, error) {
    if events == nil {
        events = queue.NopPublisher{}
    }
    if log == nil {
        log = logging.Nop{}
    }
    if opts.Now == nil {
        opts.Now = time.Now
    }
    dummy, err := hashes.Hash(context.Background(), "timing-equaliser")
    if err != nil {
        return nil, fmt.Errorf("prepare dummy hash: %w", err)
    }
    return &Service{
        users:     users,
        hashes:    hashes,
        tokens:    tokens,
        events:    events,
        log:       log,
        now:       opts.Now,
        allowName: opts.AllowNameLogin,
        dummyHash: dummy,
    }, nil
}

// Register stores a new account with role "user" and returns its summary.
// Callers cannot choose the role.
func (s *Service) Register(ctx context.Context, name, email, password string) (model.UserSummary, error) {
    name = strings.TrimSpace(name)
    email = repository.NormalizeEmail(email)

    hash, err := s.hashes.Hash(ctx, password)
    if err != nil {
        return model.UserSummary{}, fmt.Errorf("hash password: %w", err)
    }
    id, err := s.users.Create(ctx, name, email, hash, model.RoleUser)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return model.UserSummary{}, ErrDuplicateEmail
        }
        return model.UserSummary{}, fmt.Errorf("create user: %w", err)
    }

    out := model.UserSummary{ID: id, Name: name, Email: email, Role: model.RoleUser}
    s.log.Info(ctx, "user registered", "user_id", id, "email", email)
    s.publish(ctx, queue.UserRegisteredEvent{
        UserID: id, Name: name, Email: email, Role: model.RoleUser,
        RegisteredAt: s.now().UTC().Format(time.RFC3339),
    })
    return out, nil
}

// Login checks identifier and password and issues a bearer token. Unknown
// identifiers and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
    identifier = strings.TrimSpace(identifier)

    var (
        u   model.User
        err error
    )
    if s.allowName {
        u, err = s.users.GetByEmailOrName(ctx, identifier)
    } else {
        u, err = s.users.GetByEmail(ctx, identifier)
    }
    if err != nil {
        if !errors.Is(err, repository.ErrNotFound) {
            return LoginResult{}, fmt.Errorf("lookup user: %w", err)
        }
        if _, verr := s.hashes.Verify(ctx, password, s.dummyHash); verr != nil {
            return LoginResult{}, verr
        }
        s.failedLogin(ctx, identifier, 0)
        return LoginResult{}, ErrInvalidCredentials
    }

    ok, err := s.hashes.Verify(ctx, password, u.PasswordHash)
    if err != nil {
        return LoginResult{}, err
    }
    if !ok {
        s.failedLogin(ctx, identifier, u.ID)
        return LoginResult{}, ErrInvalidCredentials
    }

    tok, err := s.tokens.Issue(u.ID, s.now())
    if err != nil {
        return LoginResult{}, err
    }
    s.log.Info(ctx, "login succeeded", "user_id", u.ID)
    s.publish(ctx, queue.LoginEvent{
        Identifier: identifier, UserID: u.ID, Success: true,
        At: s.now().UTC().Format(time.RFC3339),
    })
    return LoginResult{AccessToken: tok.Value, TokenType: TokenTypeBearer, ExpiresAt: tok.ExpiresAt}, nil
}

// EnsureAdmin creates an admin account unless the email is already taken.
// An existing account is left untouched, whatever its role.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
    email = repository.NormalizeEmail(email)
    if email == "" || password == "" {
        return false, errors.New("admin email and password are required")
    }
    existing, err := s.users.GetByEmail(ctx, email)
    switch {
    case err == nil:
        if existing.Role != model.RoleAdmin {
            s.log.Warn(ctx, "admin seed email belongs to a non-admin account", "user_id", existing.ID)
        }
        return false, nil
    case !errors.Is(err, repository.ErrNotFound):
        return false, fmt.Errorf("lookup admin: %w", err)
    }

    hash, err := s.hashes.Hash(ctx, password)
    if err != nil {
        return false, fmt.Errorf("hash password: %w", err)
    }
    id, err := s.users.Create(ctx, strings.TrimSpace(name), email, hash, model.RoleAdmin)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            // lost a race with another instance
            return false, nil
        }
        return false, fmt.Errorf("create admin: %w", err)
    }
    s.log.Info(ctx, "admin account created", "user_id", id)
    return true, nil
}

// DeleteUser removes an account. Tokens already issued for it stop resolving
// on their next use. A missing id yields repository.ErrNotFound.
func (s *Service) DeleteUser(ctx context.Context, id uint64) error {
    if err := s.users.Delete(ctx, id); err != nil {
        return fmt.Errorf("delete user %d: %w", id, err)
    }
    s.log.Info(ctx, "user deleted", "user_id", id)
    return nil
}

func (s *Service) failedLogin(ctx context.Context, identifier string, userID uint64) {
    s.log.Info(ctx, "login failed", "identifier", identifier)
    s.publish(ctx, queue.LoginEvent{
        Identifier: identifier, UserID: userID, Success: false,
        At: s.now().UTC().Format(time.RFC3339),
    })
}

// publish is best effort: a broker outage must not fail the request.
func (s *Service) publish(ctx context.Context, ev queue.Event) {
    pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := s.events.Publish(pctx, ev); err != nil {
        s.log.Warn(ctx, "audit publish failed", "event", ev.EventName(), "error", err)
    }
}
