package local

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pet-recovery/internal/ports/identity"
)

const minPasswordLen = 6

// Provider implementa identity.Provider en memoria, con bcrypt para
// passwords y JWT HS256 para tokens. Sirve para desarrollo y tests,
// sin depender del proveedor gestionado.
type Provider struct {
	mu       sync.RWMutex
	byEmail  map[string]*account
	byID     map[string]*account
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

type account struct {
	id       string
	email    string
	hash     []byte
	disabled bool
}

type Options struct {
	Secret   string
	TokenTTL time.Duration // default 24h
}

func New(opts Options) *Provider {
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	secret := opts.Secret
	if strings.TrimSpace(secret) == "" {
		secret = "dev-secret"
	}
	return &Provider{
		byEmail:  make(map[string]*account),
		byID:     make(map[string]*account),
		secret:   []byte(secret),
		tokenTTL: ttl,
		now:      time.Now,
	}
}

type tokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (identity.Account, string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return identity.Account{}, "", identity.ErrInvalidCredential
	}
	if len(password) < minPasswordLen {
		return identity.Account{}, "", identity.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.Account{}, "", err
	}

	p.mu.Lock()
	if _, exists := p.byEmail[email]; exists {
		p.mu.Unlock()
		return identity.Account{}, "", identity.ErrEmailInUse
	}
	a := &account{
		id:    uuid.NewString(),
		email: email,
		hash:  hash,
	}
	p.byEmail[email] = a
	p.byID[a.id] = a
	p.mu.Unlock()

	token, err := p.issueToken(a)
	if err != nil {
		return identity.Account{}, "", err
	}
	return toAccount(a), token, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Account, string, error) {
	email = normalizeEmail(email)

	p.mu.RLock()
	a, ok := p.byEmail[email]
	p.mu.RUnlock()
	if !ok {
		return identity.Account{}, "", identity.ErrInvalidCredential
	}
	if a.disabled {
		return identity.Account{}, "", identity.ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return identity.Account{}, "", identity.ErrInvalidCredential
	}

	token, err := p.issueToken(a)
	if err != nil {
		return identity.Account{}, "", err
	}
	return toAccount(a), token, nil
}

func (p *Provider) Verify(ctx context.Context, token string) (identity.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, identity.ErrInvalidCredential
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return identity.Claims{}, identity.ErrExpiredCredential
		}
		return identity.Claims{}, identity.ErrInvalidCredential
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.UserID) == "" {
		return identity.Claims{}, identity.ErrInvalidCredential
	}

	// la cuenta pudo ser borrada o deshabilitada después de emitir el token
	p.mu.RLock()
	a, exists := p.byID[claims.UserID]
	p.mu.RUnlock()
	if !exists {
		return identity.Claims{}, identity.ErrInvalidCredential
	}
	if a.disabled {
		return identity.Claims{}, identity.ErrAccountDisabled
	}

	return identity.Claims{UserID: claims.UserID, Email: claims.Email}, nil
}

func (p *Provider) UpdateEmail(ctx context.Context, userID, newEmail string) error {
	newEmail = normalizeEmail(newEmail)
	if newEmail == "" {
		return identity.ErrInvalidCredential
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byID[userID]
	if !ok {
		return identity.ErrAccountNotFound
	}
	if other, exists := p.byEmail[newEmail]; exists && other.id != userID {
		return identity.ErrEmailInUse
	}

	delete(p.byEmail, a.email)
	a.email = newEmail
	p.byEmail[newEmail] = a
	return nil
}

func (p *Provider) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return identity.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byID[userID]
	if !ok {
		return identity.ErrAccountNotFound
	}
	a.hash = hash
	return nil
}

func (p *Provider) Delete(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byID[userID]
	if !ok {
		return identity.ErrAccountNotFound
	}
	delete(p.byID, a.id)
	delete(p.byEmail, a.email)
	return nil
}

// Exists reporta si la cuenta sigue viva. Lo usan los tests de
// compensación de registro.
func (p *Provider) Exists(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byID[userID]
	return ok
}

func (p *Provider) issueToken(a *account) (string, error) {
	now := p.now()
	claims := tokenClaims{
		UserID: a.id,
		Email:  a.email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func toAccount(a *account) identity.Account {
	return identity.Account{ID: a.id, Email: a.email, Disabled: a.disabled}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
