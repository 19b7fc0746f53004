// Package repository holds the credential store: the UserStore contract and
// its MySQL, in-memory and redis-cached implementations. The sentinel errors
// below let higher layers tell failure scenarios apart with errors.Is.
package repository

import "errors"

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrEmailExists is returned by Create when the email is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidRole is returned by Create for a role outside the known set.
var ErrInvalidRole = errors.New("invalid role")

// ErrEmptyHash is returned by Create when no password hash is supplied.
var ErrEmptyHash = errors.New("empty password hash")
