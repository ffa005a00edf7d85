package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Create persiste el aviso. El reintento ante fallas del store vive en
// el workflow de escaneo, que es quien decide tragarse el error.
func (s *Service) Create(ctx context.Context, n Notification) (Notification, error) {
	if strings.TrimSpace(n.OwnerUserID) == "" || strings.TrimSpace(n.PetID) == "" {
		return Notification{}, ErrInvalidInput
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Kind == "" {
		n.Kind = KindPetScanned
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, ownerUserID string, onlyUnread bool) ([]Notification, error) {
	return s.repo.ListByOwner(ctx, ownerUserID, onlyUnread)
}

func (s *Service) SetRead(ctx context.Context, ownerUserID, id string, read bool) (Notification, error) {
	if err := s.repo.SetRead(ctx, ownerUserID, id, read); err != nil {
		return Notification{}, err
	}
	return s.repo.Get(ctx, ownerUserID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, ownerUserID string) (int, error) {
	return s.repo.MarkAllRead(ctx, ownerUserID)
}

func (s *Service) CountUnread(ctx context.Context, ownerUserID string) (int, error) {
	return s.repo.CountUnread(ctx, ownerUserID)
}

type Stats struct {
	Total  int
	Unread int
	Scans  int
	Today  int
}

// ComputeStats recorre el set completo del dueño. Sin contadores
// incrementales: a esta escala el barrido alcanza.
func (s *Service) ComputeStats(ctx context.Context, ownerUserID string) (Stats, error) {
	items, err := s.repo.ListByOwner(ctx, ownerUserID, false)
	if err != nil {
		return Stats{}, err
	}

	now := s.now()
	var st Stats
	for _, n := range items {
		st.Total++
		if !n.Read {
			st.Unread++
		}
		if n.Kind == KindPetScanned {
			st.Scans++
		}
		if sameLocalDay(n.CreatedAt, now) {
			st.Today++
		}
	}
	return st, nil
}

func sameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
