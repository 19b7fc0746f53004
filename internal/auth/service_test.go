package auth

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/user-auth-service/internal/logging"
    "github.com/iliyamo/user-auth-service/internal/model"
    "github.com/iliyamo/user-auth-service/internal/queue"
    "github.com/iliyamo/user-auth-service/internal/repository"
)

type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.Event
    err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return p.err
}

func (p *recordingPublisher) all() []queue.Event {
    p.mu.Lock()
    defer p.mu.Unlock()
    return append([]queue.Event(nil), p.events...)
}

type fixture struct {
    svc    *Service
    store  *repository.MemoryUserRepo
    tokens *TokenService
    events *recordingPublisher
}

func newFixture(t *testing.T, allowName bool) fixture {
    t.Helper()
    store := repository.NewMemoryUserRepo()
    tokens := newTestTokens(t)
    events := &recordingPublisher{}
    svc, err := NewService(store, NewHashPool(NewBcryptHasher(bcrypt.MinCost), 2), tokens, events,
        logging.Nop{}, Options{AllowNameLogin: allowName, Now: func() time.Time { return t0 }})
    require.NoError(t, err)
    return fixture{svc: svc, store: store, tokens: tokens, events: events}
}

func TestRegister_ForcesUserRoleAndHidesHash(t *testing.T) {
    f := newFixture(t, true)
    ctx := context.Background()

    sum, err := f.svc.Register(ctx, " A ", "A@X.com", "pw")
    require.NoError(t, err)
    assert.Equal(t, model.UserSummary{ID: sum.ID, Name: "A", Email: "a@x.com", Role: model.RoleUser}, sum)

    stored, err := f.store.GetByID(ctx, sum.ID)
    require.NoError(t, err)
    assert.NotEmpty(t, stored.PasswordHash)
    assert.NotEqual(t, "pw", stored.PasswordHash)
    assert.Equal(t, model.RoleUser, stored.Role)

    evs := f.events.all()
    require.Len(t, evs, 1)
    assert.Equal(t, queue.UserRegisteredEvent{
        UserID: sum.ID, Name: "A", Email: "a@x.com", Role: "user", RegisteredAt: "2025-03-01T12:00:00Z",
    }, evs[0])
}

func TestRegister_DuplicateEmail(t *testing.T) {
    f := newFixture(t, true)
    ctx := context.Background()

    _, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)
    _, err = f.svc.Register(ctx, "B", "a@x.com", "pw2")
    assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestLogin_IssuesTokenForSubject(t *testing.T) {
    f := newFixture(t, true)
    ctx := context.Background()

    sum, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)

    res, err := f.svc.Login(ctx, "a@x.com", "pw")
    require.NoError(t, err)
    assert.Equal(t, TokenTypeBearer, res.TokenType)
    assert.Equal(t, t0.Add(30*time.Minute), res.ExpiresAt)

    id, err := f.tokens.Validate(res.AccessToken, t0)
    require.NoError(t, err)
    assert.Equal(t, sum.ID, id)

    // display name works as identifier too
    res, err = f.svc.Login(ctx, "A", "pw")
    require.NoError(t, err)
    assert.NotEmpty(t, res.AccessToken)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
    f := newFixture(t, true)
    ctx := context.Background()

    _, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)

    _, wrongPw := f.svc.Login(ctx, "a@x.com", "wrongpw")
    _, noUser := f.svc.Login(ctx, "nouser@x.com", "pw")

    assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
    assert.ErrorIs(t, noUser, ErrInvalidCredentials)
    assert.Equal(t, wrongPw.Error(), noUser.Error())

    var failed int
    for _, ev := range f.events.all() {
        if le, ok := ev.(queue.LoginEvent); ok && !le.Success {
            failed++
        }
    }
    assert.Equal(t, 2, failed)
}

func TestLogin_NameDisabled(t *testing.T) {
    f := newFixture(t, false)
    ctx := context.Background()

    _, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)

    _, err = f.svc.Login(ctx, "A", "pw")
    assert.ErrorIs(t, err, ErrInvalidCredentials)

    _, err = f.svc.Login(ctx, " A@x.com ", "pw")
    assert.NoError(t, err)
}

func TestLogin_PublishFailureDoesNotFailRequest(t *testing.T) {
    f := newFixture(t, true)
    f.events.err = errors.New("broker down")
    ctx := context.Background()

    _, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)
    _, err = f.svc.Login(ctx, "a@x.com", "pw")
    require.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
    f := newFixture(t, true)
    ctx := context.Background()

    created, err := f.svc.EnsureAdmin(ctx, "root", "Admin@X.com", "adminpw")
    require.NoError(t, err)
    assert.True(t, created)

    created, err = f.svc.EnsureAdmin(ctx, "root", "admin@x.com", "adminpw")
    require.NoError(t, err)
    assert.False(t, created)

    u, err := f.store.GetByEmail(ctx, "admin@x.com")
    require.NoError(t, err)
    assert.Equal(t, model.RoleAdmin, u.Role)

    res, err := f.svc.Login(ctx, "admin@x.com", "adminpw")
    require.NoError(t, err)
    assert.NotEmpty(t, res.AccessToken)

    _, err = f.svc.EnsureAdmin(ctx, "root", "", "pw")
    assert.Error(t, err)
}

func TestEnsureAdmin_DoesNotPromoteExistingUser(t *testing.T) {
    f := newFixture(t, true)
    ctx := context.Background()

    sum, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)

    created, err := f.svc.EnsureAdmin(ctx, "root", "a@x.com", "other")
    require.NoError(t, err)
    assert.False(t, created)

    u, err := f.store.GetByID(ctx, sum.ID)
    require.NoError(t, err)
    assert.Equal(t, model.RoleUser, u.Role)
}

func TestDeleteUser(t *testing.T) {
    f := newFixture(t, true)
    ctx := context.Background()

    sum, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)
    require.NoError(t, f.svc.DeleteUser(ctx, sum.ID))

    err = f.svc.DeleteUser(ctx, sum.ID)
    assert.ErrorIs(t, err, repository.ErrNotFound)

    // the email is free again, the id is not reused
    again, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)
    assert.NotEqual(t, sum.ID, again.ID)
}

func TestService_EndToEnd(t *testing.T) {
    f := newFixture(t, true)
    ctx := context.Background()
    r := NewResolver(f.tokens, f.store, func() time.Time { return t0 })

    sum, err := f.svc.Register(ctx, "A", "a@x.com", "pw")
    require.NoError(t, err)
    res, err := f.svc.Login(ctx, "a@x.com", "pw")
    require.NoError(t, err)

    me, err := r.ResolveCurrentUser(ctx, res.AccessToken)
    require.NoError(t, err)
    assert.Equal(t, sum, me.Summary())

    _, err = RequireRole(me, model.RoleAdmin)
    assert.ErrorIs(t, err, ErrForbidden)

    require.NoError(t, f.store.Delete(ctx, sum.ID))
    _, err = r.ResolveCurrentUser(ctx, res.AccessToken)
    assert.ErrorIs(t, err, ErrUnauthorized)
}
