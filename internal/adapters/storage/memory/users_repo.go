package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pet-recovery/internal/domain/users"
)

type userRepo struct {
	mu   sync.RWMutex
	byID map[string]users.Profile
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID: make(map[string]users.Profile),
	}
}

func (r *userRepo) Create(ctx context.Context, p users.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("profile id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("profile already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return users.Profile{}, users.ErrNotFound
	}
	return p, nil
}

func (r *userRepo) Update(ctx context.Context, p users.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return users.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}
