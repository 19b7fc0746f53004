package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/user-auth-service/internal/model"
)

// MemoryUserRepo keeps users in process memory. Used for local runs with
// STORE_DRIVER=memory and in tests.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	nextID  uint64
	users   map[uint64]model.User
	byEmail map[string]uint64
	now     func() time.Time
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:   make(map[uint64]model.User),
		byEmail: make(map[string]uint64),
		now:     time.Now,
	}
}

var _ UserStore = (*MemoryUserRepo)(nil)

func (r *MemoryUserRepo) Create(_ context.Context, name, email, passwordHash, role string) (uint64, error) {
	if err := validateNewUser(passwordHash, role); err != nil {
		return 0, err
	}
	email = NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[email]; ok {
		return 0, ErrEmailExists
	}
	// ids are never reused, even after Delete
	r.nextID++
	now := r.now().UTC()
	u := model.User{
		ID:           r.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[u.ID] = u
	r.byEmail[email] = u.ID
	return u.ID, nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id uint64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *MemoryUserRepo) GetByEmailOrName(_ context.Context, identifier string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byEmail[NormalizeEmail(identifier)]; ok {
		return r.users[id], nil
	}
	var (
		found model.User
		hit   bool
	)
	for _, u := range r.users {
		if strings.EqualFold(u.Name, identifier) && (!hit || u.ID < found.ID) {
			found, hit = u, true
		}
	}
	if !hit {
		return model.User{}, ErrNotFound
	}
	return found, nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	delete(r.byEmail, u.Email)
	return nil
}
