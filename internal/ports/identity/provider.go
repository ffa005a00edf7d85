package identity

import (
	"context"
	"errors"
)

// Errores normalizados del proveedor de identidad. Los adapters
// (httpapi, local) mapean sus códigos propios a estos sentinelas.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpiredCredential = errors.New("expired credential")
	ErrEmailInUse        = errors.New("email already in use")
	ErrWeakPassword      = errors.New("weak password")
	ErrAccountDisabled   = errors.New("account disabled")
	ErrAccountNotFound   = errors.New("account not found")
	ErrUnavailable       = errors.New("identity provider unavailable")
)

// Provider emite y verifica credenciales. Externo al sistema: aquí solo
// se modela el contrato mínimo que usan registro, login y perfil.
type Provider interface {
	// SignUp crea la cuenta y devuelve un token de sesión inicial.
	SignUp(ctx context.Context, email, password string) (Account, string, error)

	// SignIn valida email+password y devuelve un token de sesión.
	SignIn(ctx context.Context, email, password string) (Account, string, error)

	// Verify valida un token bearer y devuelve los claims.
	Verify(ctx context.Context, token string) (Claims, error)

	UpdateEmail(ctx context.Context, userID, newEmail string) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error

	// Delete elimina la cuenta. Lo usa la compensación de registro
	// cuando el perfil nunca llega a ser visible en el store.
	Delete(ctx context.Context, userID string) error
}
