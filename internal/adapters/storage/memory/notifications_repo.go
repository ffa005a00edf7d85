package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-recovery/internal/domain/notifications"
)

type notificationRepo struct {
	mu   sync.Mutex
	byID map[string]notifications.Notification
}

func NewNotificationRepo() notifications.Repository {
	return &notificationRepo{
		byID: make(map[string]notifications.Notification),
	}
}

func (r *notificationRepo) Create(ctx context.Context, n notifications.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(n.ID) == "" {
		return errors.New("notification id required")
	}
	if _, exists := r.byID[n.ID]; exists {
		return errors.New("notification already exists")
	}
	r.byID[n.ID] = n
	return nil
}

func (r *notificationRepo) ListByOwner(ctx context.Context, ownerUserID string, onlyUnread bool) ([]notifications.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]notifications.Notification, 0)
	for _, n := range r.byID {
		if n.OwnerUserID != ownerUserID {
			continue
		}
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

func (r *notificationRepo) Get(ctx context.Context, ownerUserID, id string) (notifications.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.OwnerUserID != ownerUserID {
		return notifications.Notification{}, notifications.ErrNotFound
	}
	return n, nil
}

func (r *notificationRepo) SetRead(ctx context.Context, ownerUserID, id string, read bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.OwnerUserID != ownerUserID {
		return notifications.ErrNotFound
	}
	n.Read = read
	r.byID[id] = n
	return nil
}

// MarkAllRead es todo-o-nada: corre bajo el lock, así que o cambia el
// set completo de no leídas o no cambia nada.
func (r *notificationRepo) MarkAllRead(ctx context.Context, ownerUserID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, n := range r.byID {
		if n.OwnerUserID != ownerUserID || n.Read {
			continue
		}
		n.Read = true
		r.byID[id] = n
		count++
	}
	return count, nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, ownerUserID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, n := range r.byID {
		if n.OwnerUserID == ownerUserID && !n.Read {
			count++
		}
	}
	return count, nil
}
