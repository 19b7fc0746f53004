package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/user-auth-service/internal/model"
)

// UserStore persists user records. Implementations must be safe for
// concurrent use and must assign each id exactly once.
type UserStore interface {
	// Create inserts a user and returns its new id.
	Create(ctx context.Context, name, email, passwordHash, role string) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// GetByEmailOrName matches identifier against the email first and the
	// display name second. Name matching ignores case, as the MySQL utf8mb4
	// collation does. Among several name matches the lowest id wins.
	GetByEmailOrName(ctx context.Context, identifier string) (model.User, error)
	Delete(ctx context.Context, id uint64) error
}

// NormalizeEmail lower-cases and trims an email the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateNewUser(passwordHash, role string) error {
	if passwordHash == "" {
		return ErrEmptyHash
	}
	if !model.ValidRole(role) {
		return ErrInvalidRole
	}
	return nil
}
