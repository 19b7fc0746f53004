package auth

import (
    "errors"
    "fmt"
    "strings"

    "github.com/alexedwards/argon2id"
    "golang.org/x/crypto/bcrypt"
)

// Hasher turns a plaintext password into a salted one-way hash and checks
// candidates against it.
type Hasher interface {
    Hash(plain string) (string, error)
    // Verify never fails loudly: a malformed hash is simply a mismatch.
    Verify(plain, hash string) bool
}

// NewHasher picks an implementation by name ("bcrypt" or "argon2id").
func NewHasher(name string, bcryptCost int) (Hasher, error) {
    switch strings.ToLower(strings.TrimSpace(name)) {
    case "", "bcrypt":
        return NewBcryptHasher(bcryptCost), nil
    case "argon2id", "argon2":
        return NewArgon2Hasher(nil), nil
    }
    return nil, fmt.Errorf("unknown password hasher %q", name)
}

// BcryptHasher hashes with bcrypt at a fixed cost.
type BcryptHasher struct{ cost int }

// NewBcryptHasher clamps cost into bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
    if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
        cost = bcrypt.DefaultCost
    }
    return &BcryptHasher{cost: cost}
}

// Hash returns bcrypt hash using the configured cost. Passwords longer than
// 72 bytes are rejected with ErrPasswordTooLong.
func (h *BcryptHasher) Hash(plain string) (string, error) {
    b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
    if err != nil {
        if errors.Is(err, bcrypt.ErrPasswordTooLong) {
            return "", ErrPasswordTooLong
        }
        return "", err
    }
    return string(b), nil
}

// Verify safely compares bcrypt hash and plain password.
func (h *BcryptHasher) Verify(plain, hash string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Argon2Hasher produces encoded $argon2id$v=19$m=... strings.
type Argon2Hasher struct{ params *argon2id.Params }

// NewArgon2Hasher uses argon2id.DefaultParams when p is nil.
func NewArgon2Hasher(p *argon2id.Params) *Argon2Hasher {
    if p == nil {
        p = argon2id.DefaultParams
    }
    return &Argon2Hasher{params: p}
}

func (h *Argon2Hasher) Hash(plain string) (string, error) {
    return argon2id.CreateHash(plain, h.params)
}

func (h *Argon2Hasher) Verify(plain, hash string) bool {
    ok, err := argon2id.ComparePasswordAndHash(plain, hash)
    return err == nil && ok
}
