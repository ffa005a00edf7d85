package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-recovery/internal/platform/httpclient"
	"pet-recovery/internal/ports/identity"
)

var ErrNotConfigured = errors.New("identity client not configured")

// Config del cliente al proveedor de identidad gestionado.
// BaseURL y APIKey normalmente vienen de env vars.
type Config struct {
	BaseURL string
	APIKey  string

	// Header de la API key. Vacío => "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Provider implementa identity.Provider contra la API REST del
// proveedor gestionado. Los códigos de error del upstream se
// normalizan a los sentinelas de ports/identity.
type Provider struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func New(cfg Config) (*Provider, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, ErrNotConfigured
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}

	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-Api-Key"
	}

	return &Provider{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: header,
	}, nil
}

type accountPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Disabled bool   `json:"disabled"`
}

type sessionResponse struct {
	Account accountPayload `json:"account"`
	Token   string         `json:"token"`
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (identity.Account, string, error) {
	var out sessionResponse
	err := p.do(ctx, http.MethodPost, "/v1/accounts/signup", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return identity.Account{}, "", err
	}
	return toAccount(out.Account), out.Token, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Account, string, error) {
	var out sessionResponse
	err := p.do(ctx, http.MethodPost, "/v1/accounts/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return identity.Account{}, "", err
	}
	return toAccount(out.Account), out.Token, nil
}

func (p *Provider) Verify(ctx context.Context, token string) (identity.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return identity.Claims{}, identity.ErrInvalidCredential
	}

	var out struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	err := p.do(ctx, http.MethodPost, "/v1/tokens/verify", map[string]string{
		"token": token,
	}, &out)
	if err != nil {
		return identity.Claims{}, err
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return identity.Claims{}, fmt.Errorf("%w: response missing user_id", identity.ErrUnavailable)
	}
	return identity.Claims{UserID: out.UserID, Email: strings.TrimSpace(out.Email)}, nil
}

func (p *Provider) UpdateEmail(ctx context.Context, userID, newEmail string) error {
	return p.do(ctx, http.MethodPatch, "/v1/accounts/"+userID, map[string]string{
		"email": newEmail,
	}, nil)
}

func (p *Provider) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	return p.do(ctx, http.MethodPatch, "/v1/accounts/"+userID, map[string]string{
		"password": newPassword,
	}, nil)
}

func (p *Provider) Delete(ctx context.Context, userID string) error {
	return p.do(ctx, http.MethodDelete, "/v1/accounts/"+userID, nil, nil)
}

func (p *Provider) do(ctx context.Context, method, path string, in, out any) error {
	if p == nil || p.http == nil {
		return ErrNotConfigured
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers[p.apiKeyHeader] = p.apiKey
	}

	err := p.http.DoJSON(ctx, method, path, headers, in, out)
	if err == nil {
		return nil
	}

	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return mapUpstreamError(httpErr)
	}
	return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
}

// mapUpstreamError traduce el body {"error":{"code":"..."}} del upstream.
// Códigos desconocidos caen al sentinel por status.
func mapUpstreamError(e *httpclient.HTTPError) error {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal([]byte(e.Body), &body)

	switch strings.ToUpper(body.Error.Code) {
	case "EMAIL_EXISTS":
		return identity.ErrEmailInUse
	case "WEAK_PASSWORD":
		return identity.ErrWeakPassword
	case "USER_DISABLED":
		return identity.ErrAccountDisabled
	case "USER_NOT_FOUND":
		return identity.ErrAccountNotFound
	case "TOKEN_EXPIRED":
		return identity.ErrExpiredCredential
	case "INVALID_CREDENTIALS", "INVALID_TOKEN":
		return identity.ErrInvalidCredential
	}

	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return identity.ErrInvalidCredential
	case http.StatusNotFound:
		return identity.ErrAccountNotFound
	case http.StatusConflict:
		return identity.ErrEmailInUse
	}
	return fmt.Errorf("%w: status=%d", identity.ErrUnavailable, e.StatusCode)
}

func toAccount(a accountPayload) identity.Account {
	return identity.Account{
		ID:       strings.TrimSpace(a.ID),
		Email:    strings.TrimSpace(a.Email),
		Disabled: a.Disabled,
	}
}
