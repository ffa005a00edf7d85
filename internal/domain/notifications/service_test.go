package notifications

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

// testRepo replica el contrato de los adapters reales: listado más
// reciente primero y mark-all-read en un solo paso.
type testRepo struct {
	byOwner map[string][]Notification
}

func newTestRepo() *testRepo {
	return &testRepo{byOwner: map[string][]Notification{}}
}

func (r *testRepo) Create(ctx context.Context, n Notification) error {
	r.byOwner[n.OwnerUserID] = append(r.byOwner[n.OwnerUserID], n)
	return nil
}

func (r *testRepo) ListByOwner(ctx context.Context, owner string, onlyUnread bool) ([]Notification, error) {
	out := make([]Notification, 0)
	for _, n := range r.byOwner[owner] {
		if onlyUnread && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *testRepo) Get(ctx context.Context, owner, id string) (Notification, error) {
	for _, n := range r.byOwner[owner] {
		if n.ID == id {
			return n, nil
		}
	}
	return Notification{}, ErrNotFound
}

func (r *testRepo) SetRead(ctx context.Context, owner, id string, read bool) error {
	items := r.byOwner[owner]
	for i := range items {
		if items[i].ID == id {
			items[i].Read = read
			return nil
		}
	}
	return ErrNotFound
}

func (r *testRepo) MarkAllRead(ctx context.Context, owner string) (int, error) {
	items := r.byOwner[owner]
	count := 0
	for i := range items {
		if !items[i].Read {
			items[i].Read = true
			count++
		}
	}
	return count, nil
}

func (r *testRepo) CountUnread(ctx context.Context, owner string) (int, error) {
	count := 0
	for _, n := range r.byOwner[owner] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func seed(t *testing.T, svc *Service, owner string, at time.Time, kind Kind, read bool) Notification {
	t.Helper()
	n, err := svc.Create(context.Background(), Notification{
		OwnerUserID: owner,
		PetID:       "pet-1",
		PetName:     "Rocky",
		Message:     "Tu mascota Rocky fue escaneada",
		Kind:        kind,
		Read:        read,
		CreatedAt:   at,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return n
}

func TestCreate_FillsDefaults(t *testing.T) {
	svc := NewService(newTestRepo())

	n, err := svc.Create(context.Background(), Notification{
		OwnerUserID: "owner-1",
		PetID:       "pet-1",
		Message:     "hola",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.ID == "" || n.Kind != KindPetScanned || n.CreatedAt.IsZero() {
		t.Fatalf("expected defaults filled, got %+v", n)
	}
}

func TestCreate_RequiresOwnerAndPet(t *testing.T) {
	svc := NewService(newTestRepo())

	if _, err := svc.Create(context.Background(), Notification{PetID: "pet-1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without owner, got %v", err)
	}
	if _, err := svc.Create(context.Background(), Notification{OwnerUserID: "owner-1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without pet, got %v", err)
	}
}

func TestList_NewestFirstAndUnreadFilter(t *testing.T) {
	svc := NewService(newTestRepo())
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	seed(t, svc, "owner-1", base, KindPetScanned, true)
	seed(t, svc, "owner-1", base.Add(time.Minute), KindPetScanned, false)
	seed(t, svc, "owner-1", base.Add(2*time.Minute), KindPetScanned, false)

	all, err := svc.List(context.Background(), "owner-1", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("expected newest first at %d", i)
		}
	}

	unread, err := svc.List(context.Background(), "owner-1", true)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("expected 2 unread, got %d", len(unread))
	}
}

func TestSetRead_RoundTrips(t *testing.T) {
	svc := NewService(newTestRepo())
	n := seed(t, svc, "owner-1", time.Now(), KindPetScanned, false)

	got, err := svc.SetRead(context.Background(), "owner-1", n.ID, true)
	if err != nil {
		t.Fatalf("set read: %v", err)
	}
	if !got.Read {
		t.Fatalf("expected read=true")
	}

	// también se puede volver a marcar como no leída
	got, err = svc.SetRead(context.Background(), "owner-1", n.ID, false)
	if err != nil || got.Read {
		t.Fatalf("expected read=false, err=%v", err)
	}

	if _, err := svc.SetRead(context.Background(), "owner-1", "nope", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// el id de otro dueño no es visible
	if _, err := svc.SetRead(context.Background(), "owner-2", n.ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestMarkAllRead_Idempotent(t *testing.T) {
	svc := NewService(newTestRepo())
	now := time.Now()

	seed(t, svc, "owner-1", now, KindPetScanned, false)
	seed(t, svc, "owner-1", now, KindPetScanned, false)
	seed(t, svc, "owner-1", now, KindPetScanned, true)

	count, err := svc.MarkAllRead(context.Background(), "owner-1")
	if err != nil || count != 2 {
		t.Fatalf("expected count=2, got %d err=%v", count, err)
	}

	count, err = svc.MarkAllRead(context.Background(), "owner-1")
	if err != nil || count != 0 {
		t.Fatalf("expected count=0 on repeat, got %d err=%v", count, err)
	}

	unread, _ := svc.CountUnread(context.Background(), "owner-1")
	if unread != 0 {
		t.Fatalf("expected 0 unread, got %d", unread)
	}
}

func TestComputeStats(t *testing.T) {
	svc := NewService(newTestRepo())
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.Local)
	svc.now = func() time.Time { return now }

	seed(t, svc, "owner-1", now.Add(-time.Hour), KindPetScanned, false)
	seed(t, svc, "owner-1", now.Add(-2*time.Hour), KindPetScanned, true)
	seed(t, svc, "owner-1", now.Add(-48*time.Hour), KindPetScanned, true)
	seed(t, svc, "owner-1", now.Add(-time.Minute), Kind("system"), false)

	st, err := svc.ComputeStats(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 4 {
		t.Fatalf("expected total=4, got %d", st.Total)
	}
	if st.Unread != 2 {
		t.Fatalf("expected unread=2, got %d", st.Unread)
	}
	if st.Scans != 3 {
		t.Fatalf("expected scans=3, got %d", st.Scans)
	}
	if st.Today != 3 {
		t.Fatalf("expected today=3, got %d", st.Today)
	}
}
