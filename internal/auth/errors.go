// Package auth implements the authentication and authorization core:
// password hashing, bearer token issuance and validation, resolving the
// caller from a token and the role gate. It knows nothing about HTTP; the
// handler layer maps the sentinels below onto status codes.
package auth

import "errors"

var (
    // ErrDuplicateEmail is returned by Register when the email is taken.
    ErrDuplicateEmail = errors.New("email already registered")

    // ErrInvalidCredentials covers both an unknown identifier and a wrong
    // password. The two are merged so login cannot be used to enumerate users.
    ErrInvalidCredentials = errors.New("invalid credentials")

    // ErrUnauthorized covers every reason a bearer token fails to resolve to
    // a user. The concrete reason stays in the error chain for logging.
    ErrUnauthorized = errors.New("unauthorized")

    // ErrPasswordTooLong is returned when the hasher cannot take the whole
    // password (bcrypt reads at most 72 bytes).
    ErrPasswordTooLong = errors.New("password too long")

    // ErrForbidden means the caller is authenticated but lacks the role.
    ErrForbidden = errors.New("forbidden")
)

// Token validation failures. Never surfaced to clients directly.
var (
    ErrMalformed        = errors.New("token malformed")
    ErrInvalidSignature = errors.New("token signature invalid")
    ErrExpired          = errors.New("token expired")
)
