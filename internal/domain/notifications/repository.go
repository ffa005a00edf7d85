package notifications

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("notification not found")

type Repository interface {
	Create(ctx context.Context, n Notification) error

	// ListByOwner devuelve las notificaciones del dueño, más recientes
	// primero. Con onlyUnread filtra por el flag de leído.
	ListByOwner(ctx context.Context, ownerUserID string, onlyUnread bool) ([]Notification, error)

	Get(ctx context.Context, ownerUserID, id string) (Notification, error)
	SetRead(ctx context.Context, ownerUserID, id string, read bool) error

	// MarkAllRead marca todas las no leídas del dueño en un solo batch
	// y devuelve cuántas cambió. Cero no es error.
	MarkAllRead(ctx context.Context, ownerUserID string) (int, error)

	CountUnread(ctx context.Context, ownerUserID string) (int, error)
}
