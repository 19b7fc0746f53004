package auth

import (
    "encoding/base64"
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// signingMethod is fixed for the lifetime of the process.
var signingMethod = jwt.SigningMethodHS256

// AccessToken is a signed JWT along with its expiry.
type AccessToken struct {
    Value     string    // the serialized JWT string
    ExpiresAt time.Time // UTC expiration time
}

// TokenService issues and validates HS256 bearer tokens. It holds no state
// besides its read-only configuration, so it is safe for concurrent use.
type TokenService struct {
    secret []byte
    ttl    time.Duration
    issuer string
}

// NewTokenService builds a TokenService. An empty secret is rejected since
// it would make every token forgeable.
func NewTokenService(secret string, ttl time.Duration, issuer string) (*TokenService, error) {
    if secret == "" {
        return nil, errors.New("token secret is empty")
    }
    if ttl <= 0 {
        return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
    }
    return &TokenService{secret: []byte(secret), ttl: ttl, issuer: issuer}, nil
}

// Issue signs a token for subjectID that stays valid at least until now+TTL.
// ExpiresAt is the exp written into the token. The claims are
// sub (decimal user id), exp, iat, jti and, when configured, iss.
func (s *TokenService) Issue(subjectID uint64, now time.Time) (AccessToken, error) {
    now = now.UTC()
    // exp is a whole-second NumericDate; round up so the token never expires
    // before now+TTL.
    exp := now.Add(s.ttl)
    if frac := exp.Sub(exp.Truncate(time.Second)); frac > 0 {
        exp = exp.Add(time.Second - frac)
    }
    claims := jwt.RegisteredClaims{
        Subject:   strconv.FormatUint(subjectID, 10),
        Issuer:    s.issuer,
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
        ID:        uuid.NewString(),
    }
    signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
    if err != nil {
        return AccessToken{}, fmt.Errorf("sign token: %w", err)
    }
    return AccessToken{Value: signed, ExpiresAt: claims.ExpiresAt.Time.UTC()}, nil
}

// Validate checks raw at instant now and returns the subject id.
//
// The signature is verified over the raw header.payload before the claims
// are decoded, so any alteration of the token yields ErrInvalidSignature.
// ErrExpired is returned only once now is strictly after exp. An unparsable
// token, a missing exp, or a missing or non-integer subject yields
// ErrMalformed.
func (s *TokenService) Validate(raw string, now time.Time) (uint64, error) {
    parts := strings.Split(raw, ".")
    if len(parts) != 3 {
        return 0, ErrMalformed
    }
    sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
    if err != nil {
        return 0, ErrInvalidSignature
    }
    if err := signingMethod.Verify(parts[0]+"."+parts[1], sig, s.secret); err != nil {
        return 0, ErrInvalidSignature
    }

    var claims jwt.RegisteredClaims
    _, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
        return s.secret, nil
    },
        jwt.WithValidMethods([]string{signingMethod.Alg()}),
        jwt.WithoutClaimsValidation(),
        jwt.WithStrictDecoding(),
    )
    if err != nil {
        if errors.Is(err, jwt.ErrTokenMalformed) {
            return 0, ErrMalformed
        }
        return 0, ErrInvalidSignature
    }

    // Valid up to and including the expiry instant.
    if claims.ExpiresAt == nil {
        return 0, ErrMalformed
    }
    if now.After(claims.ExpiresAt.Time) {
        return 0, ErrExpired
    }

    if claims.Subject == "" {
        return 0, ErrMalformed
    }
    id, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil {
        return 0, ErrMalformed
    }
    return id, nil
}
