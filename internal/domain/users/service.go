package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-recovery/internal/platform/logger"
	"pet-recovery/internal/platform/retry"
	"pet-recovery/internal/ports/identity"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrWriteNotConfirmed: la escritura nunca se hizo visible dentro
	// de la ventana de reintentos. En registro dispara la compensación
	// (se borra la cuenta de identidad recién creada).
	ErrWriteNotConfirmed = errors.New("write not confirmed")

	// ErrStoreUnavailable: el store falló en todos los intentos.
	ErrStoreUnavailable = errors.New("store unavailable")
)

const (
	writeVerifyAttempts = 3
	existsAttempts      = 3
	listRetryAttempts   = 3
)

type Service struct {
	repo     Repository
	provider identity.Provider
	log      logger.Logger
	now      func() time.Time

	// espera fija entre reintentos; los tests la bajan a cero
	verifyDelay time.Duration
	existsDelay time.Duration
}

type ServiceOptions struct {
	Logger logger.Logger

	// VerifyDelay separa los sondeos de visibilidad post-escritura (default 500ms).
	// ExistsDelay separa los reintentos del gate de credenciales (default 1s).
	VerifyDelay time.Duration
	ExistsDelay time.Duration
}

func NewService(repo Repository, provider identity.Provider, opts ServiceOptions) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop{}
	}
	verifyDelay := opts.VerifyDelay
	if verifyDelay == 0 {
		verifyDelay = 500 * time.Millisecond
	}
	existsDelay := opts.ExistsDelay
	if existsDelay == 0 {
		existsDelay = time.Second
	}
	return &Service{
		repo:        repo,
		provider:    provider,
		log:         log,
		now:         time.Now,
		verifyDelay: verifyDelay,
		existsDelay: existsDelay,
	}
}

// Register crea la cuenta de identidad y el perfil, en ese orden.
// Si el perfil no se confirma visible, se compensa borrando la cuenta
// para no dejar credenciales huérfanas.
func (s *Service) Register(ctx context.Context, name, email, password string) (Profile, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Profile{}, "", ErrInvalidInput
	}

	account, token, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return Profile{}, "", err
	}

	now := s.now()
	p := Profile{
		ID:        account.ID,
		Name:      name,
		Email:     account.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.writeAndConfirm(ctx, p); err != nil {
		// compensación: sin perfil visible la cuenta no sirve
		if delErr := s.provider.Delete(ctx, account.ID); delErr != nil {
			s.log.Error("no se pudo compensar la cuenta de identidad", map[string]any{
				"user_id": account.ID,
				"err":     delErr.Error(),
			})
		}
		return Profile{}, "", err
	}

	return p, token, nil
}

func (s *Service) writeAndConfirm(ctx context.Context, p Profile) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteNotConfirmed, err)
	}

	// sondeo de visibilidad: el store puede tardar en propagar
	err := retry.Do(ctx, writeVerifyAttempts, s.verifyDelay, func() error {
		_, err := s.repo.GetByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteNotConfirmed, err)
	}
	return nil
}

// Login delega en el proveedor de identidad y trae el perfil,
// absorbiendo la ventana de staleness posterior al registro.
func (s *Service) Login(ctx context.Context, email, password string) (Profile, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Profile{}, "", ErrInvalidInput
	}

	account, token, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return Profile{}, "", err
	}

	var p Profile
	err = retry.Do(ctx, existsAttempts, s.existsDelay, func() error {
		var getErr error
		p, getErr = s.repo.GetByID(ctx, account.ID)
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, "", ErrNotFound
		}
		return Profile{}, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return p, token, nil
}

func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Exists es el chequeo del gate de credenciales: confirma que el
// perfil del token exista, reintentando lecturas transitorias.
func (s *Service) Exists(ctx context.Context, id string) error {
	err := retry.Do(ctx, existsAttempts, s.existsDelay, func() error {
		_, err := s.repo.GetByID(ctx, id)
		return err
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

type UpdateInput struct {
	Email string
	Phone string
}

// Update cambia email y/o teléfono. El cambio de email pasa primero
// por el proveedor de identidad, que es quien detecta colisiones.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	newEmail := strings.TrimSpace(in.Email)
	if newEmail != "" && !strings.EqualFold(newEmail, p.Email) {
		if err := s.provider.UpdateEmail(ctx, id, newEmail); err != nil {
			return Profile{}, err
		}
		p.Email = strings.ToLower(newEmail)
	}

	p.Phone = strings.TrimSpace(in.Phone)
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// ChangePassword reautentica con la contraseña actual antes de
// aceptar la nueva.
func (s *Service) ChangePassword(ctx context.Context, id, current, newPassword string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, _, err := s.provider.SignIn(ctx, p.Email, current); err != nil {
		return err
	}
	return s.provider.UpdatePassword(ctx, id, newPassword)
}
