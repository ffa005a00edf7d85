package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-recovery/internal/domain/notifications"
)

type NotificationsRepo struct {
	db *sql.DB
}

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, owner_user_id, pet_id, pet_name,
			message, latitude, longitude, location_info, user_message,
			kind, read, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		n.ID,
		n.OwnerUserID,
		n.PetID,
		n.PetName,
		n.Message,
		n.Latitude,
		n.Longitude,
		n.LocationInfo,
		n.UserMessage,
		string(n.Kind),
		n.Read,
		n.CreatedAt,
	)
	return err
}

func (r *NotificationsRepo) ListByOwner(ctx context.Context, ownerUserID string, onlyUnread bool) ([]notifications.Notification, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	query := `
		SELECT id, owner_user_id, pet_id, pet_name,
		       message, latitude, longitude, location_info, user_message,
		       kind, read, created_at
		FROM notifications
		WHERE owner_user_id = $1
	`
	if onlyUnread {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notifications.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationsRepo) Get(ctx context.Context, ownerUserID, id string) (notifications.Notification, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, pet_id, pet_name,
		       message, latitude, longitude, location_info, user_message,
		       kind, read, created_at
		FROM notifications
		WHERE owner_user_id = $1 AND id = $2
	`, ownerUserID, id)

	n, err := scanNotification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return notifications.Notification{}, notifications.ErrNotFound
		}
		return notifications.Notification{}, err
	}
	return n, nil
}

func (r *NotificationsRepo) SetRead(ctx context.Context, ownerUserID, id string, read bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = $3
		WHERE owner_user_id = $1 AND id = $2
	`, ownerUserID, id, read)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notifications.ErrNotFound
	}
	return nil
}

// MarkAllRead es un solo UPDATE: el batch es atómico a nivel de statement.
func (r *NotificationsRepo) MarkAllRead(ctx context.Context, ownerUserID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE owner_user_id = $1 AND read = FALSE
	`, ownerUserID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *NotificationsRepo) CountUnread(ctx context.Context, ownerUserID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE owner_user_id = $1 AND read = FALSE
	`, ownerUserID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (notifications.Notification, error) {
	var n notifications.Notification
	var kind string
	if err := row.Scan(
		&n.ID,
		&n.OwnerUserID,
		&n.PetID,
		&n.PetName,
		&n.Message,
		&n.Latitude,
		&n.Longitude,
		&n.LocationInfo,
		&n.UserMessage,
		&kind,
		&n.Read,
		&n.CreatedAt,
	); err != nil {
		return notifications.Notification{}, err
	}
	n.Kind = notifications.Kind(kind)
	return n, nil
}
