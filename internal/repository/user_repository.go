package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/user-auth-service/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY, raised by the unique key on email.
const mysqlDuplicateEntry = 1062

const userColumns = "id,name,email,password_hash,role,created_at,updated_at"

// UserRepo is the MySQL-backed UserStore.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var _ UserStore = (*UserRepo)(nil)

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (uint64, error) {
	if err := validateNewUser(passwordHash, role); err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		name, NormalizeEmail(email), passwordHash, role)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return uint64(id), nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
}

// GetByEmailOrName prefers an email match, then the oldest name match.
func (r *UserRepo) GetByEmailOrName(ctx context.Context, identifier string) (model.User, error) {
	email := NormalizeEmail(identifier)
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR name=? ORDER BY (email=?) DESC, id ASC LIMIT 1",
		email, identifier, email)
}

// Delete removes a user by id.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
