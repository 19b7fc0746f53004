package auth

import (
    "context"
    "strings"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/alexedwards/argon2id"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func testHashers() map[string]Hasher {
    return map[string]Hasher{
        "bcrypt": NewBcryptHasher(bcrypt.MinCost),
        "argon2id": NewArgon2Hasher(&argon2id.Params{
            Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
        }),
    }
}

func TestHasher_RoundTrip(t *testing.T) {
    for name, h := range testHashers() {
        t.Run(name, func(t *testing.T) {
            for _, pw := range []string{"pw", "", "correct horse battery staple", "пароль"} {
                hash, err := h.Hash(pw)
                require.NoError(t, err)
                assert.NotEqual(t, pw, hash)
                assert.True(t, h.Verify(pw, hash), "verify(%q, hash(%q))", pw, pw)
            }
        })
    }
}

func TestHasher_Salted(t *testing.T) {
    for name, h := range testHashers() {
        t.Run(name, func(t *testing.T) {
            a, err := h.Hash("same")
            require.NoError(t, err)
            b, err := h.Hash("same")
            require.NoError(t, err)
            assert.NotEqual(t, a, b)
        })
    }
}

func TestHasher_Mismatch(t *testing.T) {
    for name, h := range testHashers() {
        t.Run(name, func(t *testing.T) {
            hash, err := h.Hash("pw1")
            require.NoError(t, err)
            assert.False(t, h.Verify("pw2", hash))
            assert.False(t, h.Verify("PW1", hash))
        })
    }
}

func TestHasher_MalformedHashIsFalse(t *testing.T) {
    for name, h := range testHashers() {
        t.Run(name, func(t *testing.T) {
            for _, bad := range []string{"", "plain", "$2a$xx$", "$argon2id$v=19$m=bad", strings.Repeat("$", 80)} {
                assert.NotPanics(t, func() {
                    assert.False(t, h.Verify("pw", bad))
                })
            }
        })
    }
}

func TestBcryptHasher_TooLong(t *testing.T) {
    h := NewBcryptHasher(bcrypt.MinCost)
    _, err := h.Hash(strings.Repeat("x", 73))
    assert.ErrorIs(t, err, ErrPasswordTooLong)

    hash, err := h.Hash(strings.Repeat("x", 72))
    require.NoError(t, err)
    assert.True(t, h.Verify(strings.Repeat("x", 72), hash))
}

func TestNewHasher(t *testing.T) {
    h, err := NewHasher("bcrypt", 4)
    require.NoError(t, err)
    assert.IsType(t, &BcryptHasher{}, h)

    h, err = NewHasher("", 0)
    require.NoError(t, err)
    assert.Equal(t, bcrypt.DefaultCost, h.(*BcryptHasher).cost)

    h, err = NewHasher("Argon2id", 0)
    require.NoError(t, err)
    assert.IsType(t, &Argon2Hasher{}, h)

    _, err = NewHasher("md5", 0)
    assert.Error(t, err)
}

// slowHasher records how many calls run at the same time.
type slowHasher struct {
    cur, max atomic.Int32
}

func (s *slowHasher) enter() {
    n := s.cur.Add(1)
    for {
        m := s.max.Load()
        if n <= m || s.max.CompareAndSwap(m, n) {
            break
        }
    }
    time.Sleep(10 * time.Millisecond)
    s.cur.Add(-1)
}

func (s *slowHasher) Hash(plain string) (string, error) { s.enter(); return "h:" + plain, nil }
func (s *slowHasher) Verify(plain, hash string) bool   { s.enter(); return hash == "h:"+plain }

func TestHashPool_BoundsConcurrency(t *testing.T) {
    sh := &slowHasher{}
    pool := NewHashPool(sh, 2)

    var wg sync.WaitGroup
    for i := 0; i < 10; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := pool.Hash(context.Background(), "x")
            assert.NoError(t, err)
        }()
    }
    wg.Wait()
    assert.LessOrEqual(t, sh.max.Load(), int32(2))
}

func TestHashPool_VerifyAndCancel(t *testing.T) {
    pool := NewHashPool(&slowHasher{}, 1)

    ok, err := pool.Verify(context.Background(), "pw", "h:pw")
    require.NoError(t, err)
    assert.True(t, ok)

    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    // the only slot is free, but a cancelled context may still win the race;
    // hold the slot to make the wait deterministic
    require.NoError(t, pool.sem.Acquire(context.Background(), 1))
    defer pool.sem.Release(1)
    _, err = pool.Verify(ctx, "pw", "h:pw")
    assert.ErrorIs(t, err, context.Canceled)
    _, err = pool.Hash(ctx, "pw")
    assert.ErrorIs(t, err, context.Canceled)
}
