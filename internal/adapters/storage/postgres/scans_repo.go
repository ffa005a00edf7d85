package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-recovery/internal/domain/scans"
)

type ScansRepo struct {
	db *sql.DB
}

func NewScansRepo(db *sql.DB) *ScansRepo {
	return &ScansRepo{db: db}
}

func (r *ScansRepo) Append(ctx context.Context, e scans.ScanEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_events (id, pet_id, latitude, longitude, message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		e.ID,
		e.PetID,
		e.Latitude,
		e.Longitude,
		e.Message,
		e.CreatedAt,
	)
	return err
}

func (r *ScansRepo) ListByPet(ctx context.Context, petID string) ([]scans.ScanEvent, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pet_id, latitude, longitude, message, created_at
		FROM scan_events
		WHERE pet_id = $1
		ORDER BY created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]scans.ScanEvent, 0)
	for rows.Next() {
		var e scans.ScanEvent
		if err := rows.Scan(
			&e.ID,
			&e.PetID,
			&e.Latitude,
			&e.Longitude,
			&e.Message,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
