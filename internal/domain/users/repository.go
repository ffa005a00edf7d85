package users

import (
	"context"
	"errors"
)

// ErrNotFound lo devuelven los adapters de storage cuando el perfil
// no existe (o todavía no es visible tras una escritura).
var ErrNotFound = errors.New("profile not found")

type Repository interface {
	Create(ctx context.Context, p Profile) error
	GetByID(ctx context.Context, id string) (Profile, error)
	Update(ctx context.Context, p Profile) error
}
