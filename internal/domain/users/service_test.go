package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pet-recovery/internal/ports/identity"
)

// -------------------------
// Provider fake (in-memory)
// -------------------------

type fakeProvider struct {
	nextID   string
	accounts map[string]identity.Account // por id
	deleted  []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{nextID: "uid-1", accounts: map[string]identity.Account{}}
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (identity.Account, string, error) {
	for _, a := range f.accounts {
		if a.Email == strings.ToLower(email) {
			return identity.Account{}, "", identity.ErrEmailInUse
		}
	}
	a := identity.Account{ID: f.nextID, Email: strings.ToLower(email)}
	f.accounts[a.ID] = a
	return a, "token-" + a.ID, nil
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (identity.Account, string, error) {
	for _, a := range f.accounts {
		if a.Email == strings.ToLower(email) {
			if password == "correcta" {
				return a, "token-" + a.ID, nil
			}
			return identity.Account{}, "", identity.ErrInvalidCredential
		}
	}
	return identity.Account{}, "", identity.ErrInvalidCredential
}

func (f *fakeProvider) Verify(ctx context.Context, token string) (identity.Claims, error) {
	return identity.Claims{}, identity.ErrInvalidCredential
}

func (f *fakeProvider) UpdateEmail(ctx context.Context, id, email string) error {
	a, ok := f.accounts[id]
	if !ok {
		return identity.ErrAccountNotFound
	}
	a.Email = strings.ToLower(email)
	f.accounts[id] = a
	return nil
}

func (f *fakeProvider) UpdatePassword(ctx context.Context, id, password string) error {
	if _, ok := f.accounts[id]; !ok {
		return identity.ErrAccountNotFound
	}
	return nil
}

func (f *fakeProvider) Delete(ctx context.Context, id string) error {
	if _, ok := f.accounts[id]; !ok {
		return identity.ErrAccountNotFound
	}
	delete(f.accounts, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// -------------------------
// Repo fake con fallas programables
// -------------------------

type testRepo struct {
	byID map[string]Profile

	// failGets hace fallar las próximas N lecturas.
	failGets int
	getErr   error
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Profile{}, getErr: errors.New("repo: transient")}
}

func (r *testRepo) Create(ctx context.Context, p Profile) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Profile, error) {
	if r.failGets > 0 {
		r.failGets--
		return Profile{}, r.getErr
	}
	p, ok := r.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) Update(ctx context.Context, p Profile) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func newTestService(repo Repository, provider identity.Provider) *Service {
	return NewService(repo, provider, ServiceOptions{
		VerifyDelay: time.Millisecond,
		ExistsDelay: time.Millisecond,
	})
}

func TestRegister_CreatesAccountAndProfile(t *testing.T) {
	repo := newTestRepo()
	provider := newFakeProvider()
	svc := newTestService(repo, provider)

	p, token, err := svc.Register(context.Background(), "Fernanda", "Fer@Example.com", "correcta")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.ID == "" || token == "" {
		t.Fatalf("expected id and token, got %+v / %q", p, token)
	}
	if p.Email != "fer@example.com" {
		t.Fatalf("expected normalized email, got %q", p.Email)
	}
	if _, ok := repo.byID[p.ID]; !ok {
		t.Fatalf("expected profile persisted")
	}
}

func TestRegister_ToleratesStaleReadback(t *testing.T) {
	repo := newTestRepo()
	repo.failGets = 2 // las dos primeras relecturas fallan, la tercera ve el perfil
	provider := newFakeProvider()
	svc := newTestService(repo, provider)

	if _, _, err := svc.Register(context.Background(), "Fernanda", "fer@example.com", "correcta"); err != nil {
		t.Fatalf("expected register to absorb transient reads, got %v", err)
	}
	if len(provider.deleted) != 0 {
		t.Fatalf("expected no compensation, deleted=%v", provider.deleted)
	}
}

func TestRegister_CompensatesWhenProfileNeverVisible(t *testing.T) {
	repo := newTestRepo()
	repo.failGets = 100 // el store nunca confirma
	provider := newFakeProvider()
	svc := newTestService(repo, provider)

	_, _, err := svc.Register(context.Background(), "Fernanda", "fer@example.com", "correcta")
	if !errors.Is(err, ErrWriteNotConfirmed) {
		t.Fatalf("expected ErrWriteNotConfirmed, got %v", err)
	}
	if len(provider.deleted) != 1 || provider.deleted[0] != "uid-1" {
		t.Fatalf("expected identity account compensated, deleted=%v", provider.deleted)
	}
	if len(provider.accounts) != 0 {
		t.Fatalf("expected no orphan accounts, got %d", len(provider.accounts))
	}
}

func TestLogin_RetriesProfileFetch(t *testing.T) {
	repo := newTestRepo()
	provider := newFakeProvider()
	svc := newTestService(repo, provider)

	if _, _, err := svc.Register(context.Background(), "Fernanda", "fer@example.com", "correcta"); err != nil {
		t.Fatalf("register: %v", err)
	}

	repo.failGets = 2
	p, token, err := svc.Login(context.Background(), "fer@example.com", "correcta")
	if err != nil {
		t.Fatalf("expected login to retry profile fetch, got %v", err)
	}
	if p.Name != "Fernanda" || token == "" {
		t.Fatalf("unexpected login result: %+v", p)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newTestRepo()
	provider := newFakeProvider()
	svc := newTestService(repo, provider)

	if _, _, err := svc.Register(context.Background(), "Fernanda", "fer@example.com", "correcta"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "fer@example.com", "equivocada")
	if !errors.Is(err, identity.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestExists_ClassifiesErrors(t *testing.T) {
	repo := newTestRepo()
	provider := newFakeProvider()
	svc := newTestService(repo, provider)

	if _, _, err := svc.Register(context.Background(), "Fernanda", "fer@example.com", "correcta"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Exists(context.Background(), "uid-1"); err != nil {
		t.Fatalf("expected existing profile, got %v", err)
	}
	if err := svc.Exists(context.Background(), "uid-999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	repo.failGets = 100
	if err := svc.Exists(context.Background(), "uid-1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestUpdate_EmailGoesThroughProvider(t *testing.T) {
	repo := newTestRepo()
	provider := newFakeProvider()
	svc := newTestService(repo, provider)

	p, _, err := svc.Register(context.Background(), "Fernanda", "fer@example.com", "correcta")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{
		Email: "Nueva@Example.com",
		Phone: "+51 999 000 111",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Email != "nueva@example.com" || updated.Phone != "+51 999 000 111" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
	if provider.accounts[p.ID].Email != "nueva@example.com" {
		t.Fatalf("expected provider email updated, got %q", provider.accounts[p.ID].Email)
	}
}

func TestChangePassword_ReauthenticatesFirst(t *testing.T) {
	repo := newTestRepo()
	provider := newFakeProvider()
	svc := newTestService(repo, provider)

	p, _, err := svc.Register(context.Background(), "Fernanda", "fer@example.com", "correcta")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), p.ID, "equivocada", "nueva123"); !errors.Is(err, identity.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), p.ID, "correcta", "nueva123"); err != nil {
		t.Fatalf("change password: %v", err)
	}
}
