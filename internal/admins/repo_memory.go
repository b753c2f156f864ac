package admins

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	admins map[string]Admin
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{admins: make(map[string]Admin)}
}

func (r *MemoryRepo) Create(ctx context.Context, a Admin) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if existing.Email == a.Email {
			return ErrConflict
		}
	}
	r.admins[a.ID] = a
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Admin, error) {
	if err := ctx.Err(); err != nil {
		return Admin{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.admins[id]
	if !ok {
		return Admin{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (Admin, error) {
	if err := ctx.Err(); err != nil {
		return Admin{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return Admin{}, ErrNotFound
}

func (r *MemoryRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return ErrNotFound
	}
	a.LastLogin = &at
	r.admins[id] = a
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
